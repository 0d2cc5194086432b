//go:build !linux

package periph

import "syscall"

var nackErrnos = []syscall.Errno{syscall.ENXIO, syscall.EIO}
