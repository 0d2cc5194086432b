// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/i2cscan/pkg/cli/cmds/bus"
	_ "github.com/robotalks/i2cscan/pkg/cli/cmds/remote"
)
