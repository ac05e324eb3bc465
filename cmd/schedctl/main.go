package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/smart-classroom-api/internal/cli"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	"github.com/noah-isme/smart-classroom-api/pkg/config"
)

func main() {
	policy := scheduling.DefaultPolicy()
	if cfg, err := config.Load(); err == nil {
		policy.RequireTypeMatch = cfg.Scheduler.RequireTypeMatch
		policy.ReassignRoom = cfg.Scheduler.ReassignRoom
	}

	root := cli.NewRootCmd(&cli.App{Engine: scheduling.NewEngine(policy)})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
