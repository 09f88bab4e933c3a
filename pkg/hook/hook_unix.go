//go:build !windows

package hook

import (
	"context"
	"os/exec"

	"golang.org/x/sys/unix"
)

// createCommand creates an exec.Cmd for a hook on Unix-like systems.
func (e *Executor) createCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := e.commandContext(ctx, "/bin/sh", "-c", command)
	// Own process group, so a cancel signal reaches the children as well.
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
	return cmd
}
