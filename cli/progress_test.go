package cli

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuntaka9576/ddbrestore"
	"github.com/shuntaka9576/ddbrestore/ui"
)

type recordingSender struct {
	msgs  chan tea.Msg
	block chan struct{}
}

func (s *recordingSender) Send(msg tea.Msg) {
	if s.block != nil {
		<-s.block
	}
	s.msgs <- msg
}

func Test_forward(t *testing.T) {
	s := &recordingSender{msgs: make(chan tea.Msg, 4)}
	events := make(chan ddbrestore.Event, 2)
	finished := make(chan struct{})

	events <- ddbrestore.Event{Kind: ddbrestore.EventReady, Table: "Order"}
	events <- ddbrestore.Event{Kind: ddbrestore.EventItemRestored, Table: "Order", ItemID: "o1"}
	close(events)

	forward(s, events, finished)

	require.Len(t, s.msgs, 2)
	assert.Equal(t, ui.EventMsg{Kind: ddbrestore.EventReady, Table: "Order"}, <-s.msgs)
}

func Test_forwardStopsAfterProgramFinished(t *testing.T) {
	s := &recordingSender{msgs: make(chan tea.Msg, 4), block: make(chan struct{})}
	events := make(chan ddbrestore.Event, 1)
	finished := make(chan struct{})

	events <- ddbrestore.Event{Kind: ddbrestore.EventReady, Table: "Order"}

	done := make(chan struct{})
	go func() {
		forward(s, events, finished)
		close(done)
	}()

	close(finished)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("forward did not return after the program finished")
	}
	close(s.block)
}
