// Command tasksys exercises the task systems from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tasksys",
		Usage: "run bulk-synchronous task batches on a chosen scheduling strategy",
		Commands: []*cli.Command{
			RunCommand(),
			ListCommand(),
		},
	}
}
