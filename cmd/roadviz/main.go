// Command roadviz animates a traversal over a road network.
//
// The traversal runs on a background goroutine and publishes snapshots to a
// latest-wins state channel; the window, the console log, the TUI and the
// HTTP observers each read from their own subscription.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
