package ddbrestore

type TableState string

const (
	StateUnknown       TableState = "UNKNOWN"
	StateProvisioning  TableState = "PROVISIONING"
	StateCreated       TableState = "CREATED"
	StateAlreadyExists TableState = "EXISTS_ALREADY"
	StateWaiting       TableState = "WAITING"
	StateActive        TableState = "ACTIVE"
	StateReplaying     TableState = "REPLAYING"
	StateDone          TableState = "DONE"
	StateAborted       TableState = "ABORTED"
)

type TableReport struct {
	Name      string
	State     TableState
	ItemCount int
	Provision ProvisionResult
	Wait      *WaitResult
	Replay    *ReplaySummary
}

// Aborted tables were skipped by the phases after the one that failed.
func (t *TableReport) Aborted() bool {
	return t.State == StateAborted
}

func (t *TableReport) FailedItemCount() int {
	if t.Replay == nil {
		return 0
	}

	return len(t.Replay.Failed)
}

// Report lists every table of the snapshot in snapshot order.
type Report struct {
	Tables []*TableReport
}

func (r *Report) Table(name string) *TableReport {
	for _, t := range r.Tables {
		if t.Name == name {
			return t
		}
	}

	return nil
}

func (r *Report) ItemCount() int {
	n := 0
	for _, t := range r.Tables {
		if t.Replay != nil {
			n += t.Replay.Attempted
		}
	}

	return n
}

func (r *Report) FailedItemCount() int {
	n := 0
	for _, t := range r.Tables {
		n += t.FailedItemCount()
	}

	return n
}

func (r *Report) AbortedTables() []string {
	var names []string
	for _, t := range r.Tables {
		if t.Aborted() {
			names = append(names, t.Name)
		}
	}

	return names
}

func (r *Report) Succeeded() bool {
	return r.FailedItemCount() == 0 && len(r.AbortedTables()) == 0
}

// Unprocessed collects the records that were not restored, in a snapshot
// that can be fed back to a later restore. Records of aborted tables are
// included in full. Malformed elements are written back as they were read.
func (r *Report) Unprocessed(snapshot *Snapshot) *Snapshot {
	out := NewSnapshot()

	for _, t := range r.Tables {
		var indexes []int

		switch {
		case t.Aborted():
			for i := range snapshot.Records(t.Name) {
				indexes = append(indexes, i)
			}
		case t.FailedItemCount() > 0:
			for _, f := range t.Replay.Failed {
				indexes = append(indexes, f.Index)
			}
		}
		if len(indexes) == 0 {
			continue
		}

		all := snapshot.Records(t.Name)
		records := make([]Record, 0, len(indexes))
		for _, i := range indexes {
			records = append(records, all[i])
		}
		out.Add(t.Name, records)

		for j, i := range indexes {
			if raw, ok := snapshot.Malformed(t.Name, i); ok {
				out.setMalformed(t.Name, j, raw)
			}
		}
	}

	return out
}
