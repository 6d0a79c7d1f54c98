//go:build !windows

package executor

import (
	"errors"
	"os"
	"time"
)

// grace period between SIGINT and SIGKILL; scrcpy finalizes recordings on SIGINT
const terminateGrace = 3 * time.Second

// terminate interrupts the process, then kills it if it does not exit in time
func terminate(p *process) error {
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-p.done
			return nil
		}
		return err
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(terminateGrace):
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}
