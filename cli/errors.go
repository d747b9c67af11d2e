package cli

import "github.com/pkg/errors"

var (
	ErrorOptInputError = errors.New("invalid option")
	// ErrPartialRestore means the restore ran to the end but some items failed
	// or some tables were skipped.
	ErrPartialRestore = errors.New("restore partially failed")
)
