package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backline-audio/engine/internal/buildinfo"
	"github.com/backline-audio/engine/internal/conf"
)

// version, buildDate and systemID are set via -ldflags at release build
// time (e.g. -X main.version=1.4.0); they default to buildinfo.UnknownValue
// through Context's own nil/empty handling when left unset for dev builds.
var (
	version   string
	buildDate string
	systemID  string
)

func versionCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := buildinfo.NewContext(version, buildDate, systemID)
			fmt.Printf("backline %s (built %s, system %s)\n", ctx.Version(), ctx.BuildDate(), ctx.SystemID())
			return nil
		},
	}
}
