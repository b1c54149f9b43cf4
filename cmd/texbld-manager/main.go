// Command texbld-manager installs texbld builds side by side under one root
// and points the texbld command at whichever build is current.
package main

import (
	"os"

	"github.com/texbld/texbld-manager/internal/commands"
)

// Stamped at release time: -ldflags "-X main.version=v0.4.0".
var version = "dev"

func main() {
	os.Exit(run())
}

// run returns the process exit status. Execute has already reported any error.
func run() int {
	if err := commands.Execute(version); err != nil {
		return 1
	}
	return 0
}
