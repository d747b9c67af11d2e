package ddbrestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot file not found")
	ErrSnapshotInvalid  = errors.New("invalid snapshot")
	ErrRecordMalformed  = errors.New("record must be a JSON object")
)

// Record is one item of a table as it appears in the snapshot. Numbers are
// kept as json.Number so they reach DynamoDB without float rounding.
type Record = map[string]any

const UNKNOWN_RECORD_ID = "<unknown>"

// RecordID formats the record's "id" attribute for logs. When "id" is absent
// the fallback key attribute is used instead.
func RecordID(record Record, fallbackKey string) string {
	v, ok := record[DEFAULT_KEY_ATTRIBUTE]
	if !ok && fallbackKey != "" {
		v, ok = record[fallbackKey]
	}
	if !ok || v == nil {
		return UNKNOWN_RECORD_ID
	}

	return fmt.Sprint(v)
}

// Snapshot maps table names to records, keeping the order tables appear in
// the file. An element that is not a JSON object is kept as a nil Record and
// its raw value is remembered, so it fails on its own at replay time and can
// be written back unchanged.
type Snapshot struct {
	names     []string
	records   map[string][]Record
	malformed map[string]map[int]json.RawMessage
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		records:   map[string][]Record{},
		malformed: map[string]map[int]json.RawMessage{},
	}
}

// Add sets the records of a table. A table added twice keeps its first
// position and the later records.
func (s *Snapshot) Add(tableName string, records []Record) {
	if _, ok := s.records[tableName]; !ok {
		s.names = append(s.names, tableName)
	}
	s.records[tableName] = records
	delete(s.malformed, tableName)
}

func (s *Snapshot) setMalformed(tableName string, index int, raw json.RawMessage) {
	if s.malformed[tableName] == nil {
		s.malformed[tableName] = map[int]json.RawMessage{}
	}
	s.malformed[tableName][index] = raw
}

// Malformed returns the raw value of an element that is not a JSON object.
func (s *Snapshot) Malformed(tableName string, index int) (json.RawMessage, bool) {
	raw, ok := s.malformed[tableName][index]

	return raw, ok
}

func (s *Snapshot) Tables() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)

	return names
}

func (s *Snapshot) Records(tableName string) []Record {
	return s.records[tableName]
}

func (s *Snapshot) Len() int {
	return len(s.names)
}

func (s *Snapshot) ItemCount() int {
	n := 0
	for _, records := range s.records {
		n += len(records)
	}

	return n
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		buf.WriteByte('[')
		for j, record := range s.records[name] {
			if j > 0 {
				buf.WriteByte(',')
			}

			if raw, ok := s.Malformed(name, j); ok {
				buf.Write(raw)
				continue
			}

			value, err := json.Marshal(record)
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSnapshot(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*s = *parsed

	return nil
}

func invalid(format string, args ...any) error {
	return errors.Wrap(ErrSnapshotInvalid, fmt.Sprintf(format, args...))
}

// ParseSnapshot decodes `{"Table": [{...}, ...], ...}`. A document of any
// other shape is ErrSnapshotInvalid. Array elements that are not objects are
// kept as malformed records and fail individually during the restore.
func ParseSnapshot(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, invalid("read snapshot: %s", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, invalid("snapshot must be a JSON object keyed by table name")
	}

	snapshot := NewSnapshot()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalid("read table name: %s", err)
		}
		tableName, ok := tok.(string)
		if !ok {
			return nil, invalid("unexpected table name %v", tok)
		}

		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, invalid("table %s: records must be an array: %s", tableName, err)
		}

		records := make([]Record, 0, len(raw))
		var malformed []int
		for i, r := range raw {
			record, ok := decodeRecord(r)
			if !ok {
				malformed = append(malformed, i)
			}
			records = append(records, record)
		}

		snapshot.Add(tableName, records)
		for _, i := range malformed {
			snapshot.setMalformed(tableName, i, raw[i])
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, invalid("read snapshot: %s", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalid("trailing data after snapshot object")
	}

	return snapshot, nil
}

func decodeRecord(raw json.RawMessage) (Record, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var record Record
	if err := dec.Decode(&record); err != nil || record == nil {
		return nil, false
	}

	return record, true
}

// LoadSnapshot reads a snapshot file. Paths ending in ".gz" are decompressed.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrSnapshotNotFound, path)
		}

		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat snapshot")
	}
	if info.IsDir() {
		return nil, errors.Wrap(ErrSnapshotNotFound, path+" is a directory")
	}

	var reader io.Reader = bufio.NewReader(f)

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, invalid("gzip: %s", err)
		}
		defer gz.Close()

		reader = gz
	}

	return ParseSnapshot(reader)
}
