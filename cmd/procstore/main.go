package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/0xRadioAc7iv/procstore/core"
	"github.com/0xRadioAc7iv/procstore/internal/utils"
)

var VERSION = "dev"

func main() {
	c := utils.HandleCLIInputs()

	if c.Version {
		fmt.Println("procstore", VERSION)
		os.Exit(0)
	}

	logger := utils.NewLogger(os.Stdout, c.LogLevel)

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "  ")
		e.Encode(c)
	}

	ps := core.FromConfig(c, logger)

	if err := ps.Start(); err != nil {
		logger.Error("Error while starting", "error", err)
		os.Exit(1)
	}
	defer ps.Stop()

	utils.ListenForProcessInterruptOrKill(logger)
}
