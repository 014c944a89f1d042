// Command backline is the Backline Engine's CLI: it serves the Control
// Plane's command/event surface, or runs one-shot maintenance operations
// (device listing, schema migration, headless import) against the same
// configuration the server uses.
package main

import (
	"fmt"
	"os"

	"github.com/backline-audio/engine/internal/conf"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading configuration:", err)
		os.Exit(1)
	}

	if err := RootCommand(settings).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
