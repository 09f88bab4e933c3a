package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/paulschiretz/pgl-tree/pkg/archive"
	"github.com/paulschiretz/pgl-tree/pkg/buildinfo"
	"github.com/paulschiretz/pgl-tree/pkg/config"
	"github.com/paulschiretz/pgl-tree/pkg/engine"
	"github.com/paulschiretz/pgl-tree/pkg/flagparse"
	"github.com/paulschiretz/pgl-tree/pkg/hook"
	"github.com/paulschiretz/pgl-tree/pkg/planner"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
	"github.com/paulschiretz/pgl-tree/pkg/preflight"
)

// RunBuild handles the logic for the 'build' command.
func RunBuild(ctx context.Context, flagMap map[string]interface{}) error {
	// The config file lives in the output directory, so that is where we look first.
	outputDir := "."
	if out, ok := flagMap["out"].(string); ok && out != "" {
		outputDir = out
	}

	loadedConfig, err := config.Load(outputDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration from output directory: %w", err)
	}

	// Merge the flag values over the loaded config to get the final run config.
	runConfig := config.MergeConfigWithFlags(flagparse.Build, loadedConfig, flagMap)

	// CRITICAL: Validate the config for the run
	if err := runConfig.Validate(true); err != nil {
		return err
	}

	// Set the global log level based on the final configuration.
	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))
	plog.SetQuiet(runConfig.Runtime.Quiet)

	// Log the Summary
	runConfig.LogSummary()

	// Create the runner and feed it with our leaf workers
	runner := engine.NewRunner(
		preflight.NewValidator(),
		archive.NewArchiver(),
		hook.NewExecutor(exec.CommandContext),
	)

	// Get the Plan
	buildPlan, err := planner.GenerateBuildPlan(runConfig)
	if err != nil {
		return err
	}

	// Execute the plan
	startTime := time.Now()
	_, err = runner.ExecuteBuild(ctx, buildPlan)
	duration := time.Since(startTime).Round(time.Millisecond)
	if err != nil {
		return err // The error will be logged with full details by main()
	}
	plog.Info(buildinfo.Name+" finished successfully.", "duration", duration)
	return nil
}
