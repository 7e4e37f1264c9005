package main

import (
	"fmt"

	tasksys "github.com/Swind/go-task-system"
	"github.com/Swind/go-task-system/core"
	"github.com/urfave/cli/v2"
)

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the available task system kinds",
		Action:  ListAction,
	}
}

func ListAction(c *cli.Context) error {
	config := &core.SystemConfig{Logger: core.NewNoOpLogger()}
	for _, kind := range tasksys.Kinds() {
		sys, err := tasksys.New(kind, 1, config)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		fmt.Fprintf(c.App.Writer, "%-10s %s\n", kind, sys.Name())
		_ = sys.Close()
	}
	return nil
}
