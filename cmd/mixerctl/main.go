// Command mixerctl is a demo CLI and reference device adapter around
// pkg/mixer: it can play a sound file once and exit (play), drive a live
// PortAudio output stream from a terminal session (live), or inspect and
// edit its on-disk configuration (config).
package main

import (
	"fmt"
	"os"

	"github.com/loamforge/mixer/cmd/mixerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mixerctl: %v\n", err)
		os.Exit(1)
	}
}
