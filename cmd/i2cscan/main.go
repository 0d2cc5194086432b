package main

import (
	"github.com/robotalks/i2cscan/pkg/cli/sh"
	"github.com/robotalks/i2cscan/pkg/env"

	_ "github.com/robotalks/i2cscan/pkg/cli/cmds/all"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
