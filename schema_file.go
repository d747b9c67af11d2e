package ddbrestore

import (
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrSchemaInvalid = errors.New("invalid schema file")

type schemaFile struct {
	Default *schemaDef  `yaml:"default"`
	Tables  []schemaDef `yaml:"tables"`
}

type schemaDef struct {
	Name         string      `yaml:"name"`
	PartitionKey *keyDef     `yaml:"partitionKey"`
	SortKey      *keyDef     `yaml:"sortKey,omitempty"`
	BillingMode  string      `yaml:"billingMode,omitempty"`
	Capacity     capacityDef `yaml:"capacity,omitempty"`
	GSIs         []indexDef  `yaml:"gsis,omitempty"`
	LSIs         []indexDef  `yaml:"lsis,omitempty"`
}

type keyDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "S", "N", or "B"
}

type capacityDef struct {
	Read  int64 `yaml:"read"`
	Write int64 `yaml:"write"`
}

type indexDef struct {
	Name             string      `yaml:"name"`
	PartitionKey     *keyDef     `yaml:"partitionKey"`
	SortKey          *keyDef     `yaml:"sortKey,omitempty"`
	Projection       string      `yaml:"projection,omitempty"`
	NonKeyAttributes []string    `yaml:"nonKeyAttributes,omitempty"`
	Capacity         capacityDef `yaml:"capacity,omitempty"`
}

func schemaErr(format string, args ...any) error {
	return errors.Wrap(ErrSchemaInvalid, fmt.Sprintf(format, args...))
}

func (k *keyDef) attribute(role types.KeyType) (KeyAttribute, error) {
	if k.Name == "" {
		return KeyAttribute{}, schemaErr("key attribute without name")
	}

	kind := types.ScalarAttributeType(k.Kind)
	if kind == "" {
		kind = types.ScalarAttributeTypeS
	}

	switch kind {
	case types.ScalarAttributeTypeS, types.ScalarAttributeTypeN, types.ScalarAttributeTypeB:
	default:
		return KeyAttribute{}, schemaErr("key %s: unsupported kind %q", k.Name, k.Kind)
	}

	return KeyAttribute{Name: k.Name, Type: kind, Role: role}, nil
}

func keys(owner string, pk, sk *keyDef) ([]KeyAttribute, error) {
	if pk == nil {
		return nil, schemaErr("%s: partitionKey is required", owner)
	}

	hash, err := pk.attribute(types.KeyTypeHash)
	if err != nil {
		return nil, err
	}
	attrs := []KeyAttribute{hash}

	if sk != nil {
		rng, err := sk.attribute(types.KeyTypeRange)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, rng)
	}

	return attrs, nil
}

func (c capacityDef) capacity(mode DDBMode) Capacity {
	capacity := Capacity{Mode: mode, Read: c.Read, Write: c.Write}
	if mode == Provisioned {
		if capacity.Read == 0 {
			capacity.Read = DEFAULT_READ_CAPACITY
		}
		if capacity.Write == 0 {
			capacity.Write = DEFAULT_WRITE_CAPACITY
		}
	}

	return capacity
}

func (d *indexDef) index(mode DDBMode) (SecondaryIndex, error) {
	if d.Name == "" {
		return SecondaryIndex{}, schemaErr("index without name")
	}

	attrs, err := keys("index "+d.Name, d.PartitionKey, d.SortKey)
	if err != nil {
		return SecondaryIndex{}, err
	}

	proj := types.ProjectionType(d.Projection)
	switch proj {
	case "":
		proj = types.ProjectionTypeAll
	case types.ProjectionTypeAll, types.ProjectionTypeKeysOnly, types.ProjectionTypeInclude:
	default:
		return SecondaryIndex{}, schemaErr("index %s: unsupported projection %q", d.Name, d.Projection)
	}

	return SecondaryIndex{
		Name:             d.Name,
		Keys:             attrs,
		Projection:       proj,
		NonKeyAttributes: d.NonKeyAttributes,
		// zero values are filled from the table in CreateTableInput
		Capacity: Capacity{Mode: mode, Read: d.Capacity.Read, Write: d.Capacity.Write},
	}, nil
}

func (d *schemaDef) schema() (TableSchema, error) {
	owner := "table " + d.Name
	if d.Name == "" {
		owner = "default"
	}

	attrs, err := keys(owner, d.PartitionKey, d.SortKey)
	if err != nil {
		return TableSchema{}, err
	}

	var mode DDBMode
	switch types.BillingMode(d.BillingMode) {
	case "", types.BillingModeProvisioned:
		mode = Provisioned
	case types.BillingModePayPerRequest:
		mode = OnDemand
	default:
		return TableSchema{}, schemaErr("%s: unsupported billingMode %q", owner, d.BillingMode)
	}

	s := TableSchema{
		Keys:     attrs,
		Capacity: d.Capacity.capacity(mode),
	}

	for i := range d.GSIs {
		idx, err := d.GSIs[i].index(mode)
		if err != nil {
			return TableSchema{}, err
		}
		s.GlobalIndexes = append(s.GlobalIndexes, idx)
	}

	for i := range d.LSIs {
		idx, err := d.LSIs[i].index(mode)
		if err != nil {
			return TableSchema{}, err
		}
		if len(idx.Keys) != 2 || idx.Keys[0].Name != attrs[0].Name {
			return TableSchema{}, schemaErr("%s: local index %s must share the partition key and declare a sort key", owner, idx.Name)
		}
		s.LocalIndexes = append(s.LocalIndexes, idx)
	}

	return s, nil
}

// ParseSchemas reads a YAML schema document and layers it over base: named
// tables are added or replaced, and a "default" block replaces the fallback.
func ParseSchemas(r io.Reader, base *SchemaRegistry) (*SchemaRegistry, error) {
	var doc schemaFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrSchemaInvalid, err.Error())
	}

	if base == nil {
		base = NewSchemaRegistry(DefaultSchema(), nil)
	}
	registry := NewSchemaRegistry(base.defaultSchema, base.schemas)

	if doc.Default != nil {
		s, err := doc.Default.schema()
		if err != nil {
			return nil, err
		}
		registry.defaultSchema = s
	}

	for i := range doc.Tables {
		def := &doc.Tables[i]
		if def.Name == "" {
			return nil, schemaErr("tables[%d]: name is required", i)
		}

		s, err := def.schema()
		if err != nil {
			return nil, err
		}
		registry.schemas[def.Name] = s
	}

	return registry, nil
}

func LoadSchemaFile(path string, base *SchemaRegistry) (*SchemaRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open schema file")
	}
	defer f.Close()

	return ParseSchemas(f, base)
}
