package timer

import (
	"time"
)

type Timer struct {
	startTime time.Time
	now       func() time.Time
}

func (t *Timer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}

	return time.Now()
}

func (t *Timer) Start() {
	t.startTime = t.clock()
}

func (t *Timer) Elapsed() time.Duration {
	return t.clock().Sub(t.startTime).Round(time.Millisecond)
}

// Estimated extrapolates the remaining time from the pace so far. It returns
// "-" until at least one record was written.
func (t *Timer) Estimated(recordCount int, writtenCount int) string {
	if writtenCount <= 0 {
		return "-"
	}

	diff := t.clock().Sub(t.startTime)

	perWrite := diff / time.Duration(writtenCount)
	remainCount := recordCount - writtenCount
	if remainCount < 0 {
		remainCount = 0
	}
	estimateDuration := perWrite * time.Duration(remainCount)

	return estimateDuration.Round(time.Second).String()
}
