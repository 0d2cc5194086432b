package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "i2cscan"

// MachineID retrieves an ID identifying the machine. The raw machine ID
// is hashed with the application ID and never published as is.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine ID unavailable: %v", err)
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}
