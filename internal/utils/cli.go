package utils

import (
	"github.com/fulldump/goconfig"

	"github.com/0xRadioAc7iv/procstore/internal"
)

// HandleCLIInputs returns the default configuration overridden by command
// line flags, environment variables and the JSON file named by -config.
func HandleCLIInputs() *internal.Config {
	c := internal.DefaultConfig()
	goconfig.Read(c)
	return c
}
