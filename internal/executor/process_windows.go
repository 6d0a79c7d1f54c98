//go:build windows

package executor

import (
	"errors"
	"os"
)

// terminate kills the process; Windows has no SIGINT for console-less children
func terminate(p *process) error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}
