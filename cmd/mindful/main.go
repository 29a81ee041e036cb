package main

import (
	"fmt"
	"os"

	"github.com/kjannette/mindful-trader/internal/cli"
	"github.com/kjannette/mindful-trader/internal/logging"
)

func main() {
	cfg := logging.DefaultLogConfig()
	cfg.Level = "warn"
	logger := logging.New(cfg)

	if err := cli.NewRootCmd(logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
