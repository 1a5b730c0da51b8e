// Command aulabot runs the AulaBot service, terminal chat and maintenance
// commands.
package main

import (
	"os"

	"github.com/garyellow/aulabot-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
