package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

type VersionFlag bool

func (v VersionFlag) BeforeApply(ctx *kong.Context) error {
	fmt.Fprintln(ctx.Stdout, Version)
	ctx.Exit(0)

	return nil
}
