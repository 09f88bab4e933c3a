package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulschiretz/pgl-tree/pkg/buildinfo"
	"github.com/paulschiretz/pgl-tree/pkg/config"
	"github.com/paulschiretz/pgl-tree/pkg/flagparse"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
	"github.com/paulschiretz/pgl-tree/pkg/preflight"
	"github.com/paulschiretz/pgl-tree/pkg/util"
)

// RunInit handles the logic for the 'init' command.
func RunInit(ctx context.Context, flagMap map[string]interface{}) error {
	outputDir := "."
	if out, ok := flagMap["out"].(string); ok && out != "" {
		outputDir = out
	}

	absOutputPath, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("could not determine absolute output path for %s: %w", outputDir, err)
	}

	baseConfig, proceed := initBaseConfig(absOutputPath, boolFlag(flagMap, "default"), boolFlag(flagMap, "force"))
	if !proceed {
		plog.Info(buildinfo.Name + " init operation canceled.")
		return nil
	}
	baseConfig.OutputDir = absOutputPath

	// Create a config from base merged with user flags.
	runConfig := config.MergeConfigWithFlags(flagparse.Init, baseConfig, flagMap)

	// CRITICAL: Validate the config for the run
	if err := runConfig.Validate(false); err != nil {
		return err
	}

	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))
	plog.SetQuiet(runConfig.Runtime.Quiet)

	startTime := time.Now()

	// Preflight: the output directory must exist or be creatable, and be writable.
	validator := preflight.NewValidator()
	pfPlan := &preflight.Plan{
		OutputAccessible: true,
		OutputWritable:   true,
	}
	if err := validator.Run(ctx, runConfig.OutputDir, runConfig.OutputDir, pfPlan); err != nil {
		return fmt.Errorf("initialization preflight failed: %w", err)
	}

	if err := os.MkdirAll(runConfig.OutputDir, util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := config.Generate(runConfig); err != nil {
		return fmt.Errorf("failed to generate config file: %w", err)
	}

	duration := time.Since(startTime).Round(time.Millisecond)
	plog.Info(buildinfo.Name+" output directory successfully initialized.", "duration", duration)
	return nil
}

// initBaseConfig returns the configuration init starts from: the existing file
// in absOutputPath, or the defaults when reset is set. Resetting an existing file
// asks for confirmation unless force is set; proceed is false when the user declines.
func initBaseConfig(absOutputPath string, reset, force bool) (cfg config.Config, proceed bool) {
	if !reset {
		// config.Load returns the defaults when there is no file yet.
		loaded, err := config.Load(absOutputPath)
		if err != nil {
			plog.Warn("Could not load existing configuration, starting with defaults.", "reason", err)
			return config.NewDefault(), true
		}
		return loaded, true
	}

	absConfigFilePath := filepath.Join(absOutputPath, config.ConfigFileName)
	if _, err := os.Stat(absConfigFilePath); err == nil && !force {
		fmt.Printf("WARNING: Configuration file already exists at %s.\n", absConfigFilePath)
		fmt.Printf("Using -default will overwrite it with default values. All custom settings will be lost.\n")
		if !PromptForConfirmation("Are you sure you want to continue?", false) {
			return config.Config{}, false
		}
	}
	return config.NewDefault(), true
}

func boolFlag(flagMap map[string]interface{}, name string) bool {
	v, _ := flagMap[name].(bool)
	return v
}

// PromptForConfirmation prompts the user for a yes/no response.
func PromptForConfirmation(prompt string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	fmt.Printf("%s %s: ", prompt, suffix)

	var response string
	_, _ = fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return defaultYes
	}
	return response == "y" || response == "yes"
}
