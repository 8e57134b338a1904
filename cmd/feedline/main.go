// Command feedline runs the timeline engine: feeding events, replaying the
// journal, running scenarios and serving the timelines over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/feedline/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
