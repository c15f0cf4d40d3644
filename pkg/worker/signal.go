package worker

import (
	"os"
	"syscall"
)

func terminationSignal() os.Signal {
	return syscall.SIGTERM
}
