// Package hook runs user supplied shell commands after a tree has been built.
//
// Commands run sequentially in the built root directory with PGL_TREE_ROOT set
// to its absolute path. Each command gets its own process group so that a
// canceled context terminates the whole process tree.
package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/paulschiretz/pgl-tree/pkg/hints"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
)

// RootEnvVar carries the absolute path of the built root into every command.
const RootEnvVar = "PGL_TREE_ROOT"

var ErrNothingToExecute = hints.New("nothing to execute")
var ErrDisabled = hints.New("hook execution is disabled")

type Executor struct {
	// commandContext allows mocking os/exec for testing hooks.
	commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewExecutor creates an Executor. Pass exec.CommandContext outside of tests.
func NewExecutor(commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd) *Executor {
	return &Executor{
		commandContext: commandContext,
	}
}

// Run executes the plan's commands with absRootPath as working directory.
func (e *Executor) Run(ctx context.Context, absRootPath string, p *Plan) error {
	if !p.Enabled {
		return ErrDisabled
	}

	if len(p.Commands) == 0 {
		return ErrNothingToExecute
	}

	plog.Info("Running post-build hook commands", "dir", absRootPath)

	for _, hookCommand := range p.Commands {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.DryRun {
			plog.Info("[DRY RUN] Executing command", "command", hookCommand)
			continue
		}
		plog.Info("Executing command", "command", hookCommand)

		cmd := e.createCommand(ctx, hookCommand)
		cmd.Dir = absRootPath
		cmd.Env = append(cmd.Environ(), RootEnvVar+"="+absRootPath)

		// Pipe output to our logger for visibility
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			// A canceled context makes cmd.Wait() fail too; report the cancellation itself.
			if ctx.Err() == context.Canceled {
				return context.Canceled
			}
			if p.FailFast {
				return fmt.Errorf("command '%s' failed: %w", hookCommand, err)
			}
			plog.Warn("Hook command failed", "command", hookCommand, "error", err)
		}
	}
	return nil
}
