package periph

import "syscall"

// Errnos the i2c-dev driver reports when the address is not acknowledged.
var nackErrnos = []syscall.Errno{syscall.EREMOTEIO, syscall.ENXIO, syscall.EIO}
