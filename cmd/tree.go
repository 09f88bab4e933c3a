package cmd

import (
	"context"
	"io"
	"os/exec"

	"github.com/paulschiretz/pgl-tree/pkg/archive"
	"github.com/paulschiretz/pgl-tree/pkg/config"
	"github.com/paulschiretz/pgl-tree/pkg/engine"
	"github.com/paulschiretz/pgl-tree/pkg/flagparse"
	"github.com/paulschiretz/pgl-tree/pkg/hook"
	"github.com/paulschiretz/pgl-tree/pkg/planner"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
	"github.com/paulschiretz/pgl-tree/pkg/preflight"
	"github.com/paulschiretz/pgl-tree/pkg/treeview"
)

// RunTree handles the logic for the 'tree' command. The tree is written to w.
func RunTree(ctx context.Context, flagMap map[string]interface{}, w io.Writer) error {
	runConfig := config.MergeConfigWithFlags(flagparse.Tree, config.NewDefault(), flagMap)
	if err := runConfig.Validate(true); err != nil {
		return err
	}

	// The tree shares stdout with info logs; keep only warnings and errors.
	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))
	plog.SetQuiet(true)

	encoding := treeview.Text
	if v, ok := flagMap["encoding"].(string); ok {
		var err error
		if encoding, err = treeview.ParseEncoding(v); err != nil {
			return err
		}
	}

	treePlan, err := planner.GenerateTreePlan(runConfig)
	if err != nil {
		return err
	}

	runner := engine.NewRunner(
		preflight.NewValidator(),
		archive.NewArchiver(),
		hook.NewExecutor(exec.CommandContext),
	)
	return runner.ExecuteTree(ctx, treePlan, encoding, w)
}
