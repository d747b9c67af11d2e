package ddbrestore

type EventKind int

const (
	EventPhase EventKind = iota
	EventProvisioned
	EventReady
	EventNotReady
	EventItemRestored
	EventItemFailed
	EventTableReplayed
)

type Phase string

const (
	PhaseProvision Phase = "provision"
	PhaseWait      Phase = "wait"
	PhaseReplay    Phase = "replay"
	PhaseDone      Phase = "done"
)

// Event describes restore progress. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Phase     Phase
	Table     string
	ItemID    string
	Provision *ProvisionResult
	Wait      *WaitResult
	Replay    *ReplaySummary
	Err       error
}

// EventHandler receives progress events. It is called from several
// goroutines at once during the wait and replay phases.
type EventHandler func(Event)

func (h EventHandler) emit(e Event) {
	if h != nil {
		h(e)
	}
}
