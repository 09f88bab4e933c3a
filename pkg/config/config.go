package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/paulschiretz/pgl-tree/pkg/buildinfo"
	"github.com/paulschiretz/pgl-tree/pkg/flagparse"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
	"github.com/paulschiretz/pgl-tree/pkg/util"
)

// ConfigFileName is the name of the configuration file, looked up in the output directory.
const ConfigFileName = "pgl-tree.config.json"

type SpecConfig struct {
	// Format forces the spec format instead of detecting it from the file extension.
	Format string `json:"format" validate:"omitempty,oneof=json yaml toml"`
	// Selector is a JSONPath picking the project out of a larger document.
	Selector string `json:"selector"`
}

type BuildConfig struct {
	Overwrite bool   `json:"overwrite"`
	DirPerm   string `json:"dirPerm" validate:"required,perm"`
	FilePerm  string `json:"filePerm" validate:"required,perm"`
}

type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format" validate:"required,oneof=zip tar.gz tar.zst"`
	Level   string `json:"level" validate:"required,oneof=default fastest better best"`
}

type HooksConfig struct {
	// Note: omitempty is intentionally not used so that the hook field
	// appears in the generated config file for better discoverability.
	// PostBuild is a list of shell commands run inside the built root.
	// SECURITY: These commands are executed as provided. Ensure they are from a trusted source.
	PostBuild []string `json:"postBuild"`
}

type EngineConfig struct {
	Metrics  bool `json:"metrics"`
	FailFast bool `json:"failFast"`
}

type RuntimeConfig struct {
	SpecPath string
	DryRun   bool
	Quiet    bool
}

type Config struct {
	Version   string        `json:"version"`
	OutputDir string        `json:"-"` // Never added to config file
	Runtime   RuntimeConfig `json:"-"` // Never added to config file
	LogLevel  string        `json:"logLevel" validate:"required,oneof=debug notice info warn error"`
	Spec      SpecConfig    `json:"spec"`
	Build     BuildConfig   `json:"build"`
	Archive   ArchiveConfig `json:"archive"`
	Hooks     HooksConfig   `json:"hooks"`
	Engine    EngineConfig  `json:"engine"`
}

// NewDefault creates and returns a Config struct with sensible default values.
func NewDefault() Config {
	return Config{
		Version:   buildinfo.Version,
		OutputDir: ".",    // Build into the working directory.
		LogLevel:  "info", // Default log level.
		Build: BuildConfig{
			Overwrite: false, // Existing files are kept unless asked otherwise.
			DirPerm:   util.FormatPerm(util.UserWritableDirPerms),
			FilePerm:  util.FormatPerm(util.UserWritableFilePerms),
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Format:  "zip",
			Level:   "default",
		},
		Hooks: HooksConfig{
			PostBuild: []string{},
		},
		Engine: EngineConfig{
			Metrics:  true, // A one-line summary of what the build did.
			FailFast: true, // A failing hook fails the run.
		},
	}
}

// Load reads "pgl-tree.config.json" from outputDir on top of NewDefault().
// If the file doesn't exist, the defaults are returned without an error.
// If the file exists but fails to parse, it returns an error and a zero-value config.
func Load(outputDir string) (Config, error) {
	absOutputPath, err := filepath.Abs(outputDir)
	if err != nil {
		return Config{}, fmt.Errorf("could not determine absolute path for output directory %s: %w", outputDir, err)
	}

	configPath := filepath.Join(absOutputPath, ConfigFileName)

	config := NewDefault()
	config.OutputDir = absOutputPath

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Config file doesn't exist, which is a normal case.
		}
		return Config{}, fmt.Errorf("error opening config file %s: %w", configPath, err)
	}
	defer file.Close()

	plog.Info("Loading configuration", "path", configPath)
	// Fields missing from the file keep their default values.
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", configPath, err)
	}

	// NOTE: if config.Version differs from the app version a migration step goes here.
	config.Version = buildinfo.Version
	return config, nil
}

// Generate creates or overwrites the config file in the config's output directory.
func Generate(configToGenerate Config) error {
	configPath := filepath.Join(configToGenerate.OutputDir, ConfigFileName)
	jsonData, err := json.MarshalIndent(configToGenerate, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON: %w", err)
	}

	if err := os.WriteFile(configPath, jsonData, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	plog.Info("Successfully saved config file", "path", configPath)
	return nil
}

// validate is shared; validator.Validate caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config file names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("perm", func(fl validator.FieldLevel) bool {
		_, err := util.ParsePerm(fl.Field().String(), 0)
		return err == nil
	})
	return v
}

// Validate checks the configuration for logical errors and inconsistencies.
// checkSpec requires a spec path, which only commands that read one need.
func (c *Config) Validate(checkSpec bool) error {
	if err := validate.Struct(c); err != nil {
		var valErr validator.ValidationErrors
		if errors.As(err, &valErr) {
			var fields []string
			for _, fe := range valErr {
				fields = append(fields, fmt.Sprintf("%s (%s=%q)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fmt.Sprint(fe.Value())))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if checkSpec && c.Runtime.SpecPath == "" {
		return fmt.Errorf("spec path cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	var err error
	c.OutputDir, err = util.ExpandPath(c.OutputDir)
	if err != nil {
		return fmt.Errorf("could not expand output path: %w", err)
	}
	c.OutputDir = filepath.Clean(c.OutputDir)

	if c.Runtime.SpecPath != "" && c.Runtime.SpecPath != "-" {
		c.Runtime.SpecPath, err = util.ExpandPath(c.Runtime.SpecPath)
		if err != nil {
			return fmt.Errorf("could not expand spec path: %w", err)
		}
		c.Runtime.SpecPath = filepath.Clean(c.Runtime.SpecPath)
	}

	for _, cmd := range c.Hooks.PostBuild {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("hooks.postBuild cannot contain empty commands")
		}
	}
	return nil
}

// LogSummary prints a user-friendly summary of the configuration.
func (c *Config) LogSummary() {
	logArgs := []interface{}{
		"log_level", c.LogLevel,
		"spec", c.Runtime.SpecPath,
		"output", c.OutputDir,
		"dry_run", c.Runtime.DryRun,
		"overwrite", c.Build.Overwrite,
		"dir_perm", c.Build.DirPerm,
		"file_perm", c.Build.FilePerm,
		"metrics", c.Engine.Metrics,
	}
	if c.Spec.Format != "" {
		logArgs = append(logArgs, "spec_format", c.Spec.Format)
	}
	if c.Spec.Selector != "" {
		logArgs = append(logArgs, "selector", c.Spec.Selector)
	}
	if c.Archive.Enabled {
		logArgs = append(logArgs, "archive", fmt.Sprintf("enabled (f:%s l:%s)", c.Archive.Format, c.Archive.Level))
	}
	if len(c.Hooks.PostBuild) > 0 {
		logArgs = append(logArgs, "post_build_hooks", strings.Join(c.Hooks.PostBuild, "; "))
	}
	plog.Info("Configuration loaded", logArgs...)
}

// MergeConfigWithFlags overlays the configuration values from flags on top of a base
// configuration. It iterates over the setFlags map, which contains only the flags
// explicitly provided by the user on the command line.
func MergeConfigWithFlags(command flagparse.Command, base Config, setFlags map[string]any) Config {
	merged := base
	// Copy the slice so the base config is never modified through it.
	merged.Hooks.PostBuild = append([]string(nil), base.Hooks.PostBuild...)

	for name, value := range setFlags {
		switch name {
		case "spec":
			merged.Runtime.SpecPath = value.(string)
		case "out":
			merged.OutputDir = value.(string)
		case "log-level":
			merged.LogLevel = value.(string)
		case "dry-run":
			merged.Runtime.DryRun = value.(bool)
		case "quiet":
			merged.Runtime.Quiet = value.(bool)
		case "metrics":
			merged.Engine.Metrics = value.(bool)
		case "fail-fast":
			merged.Engine.FailFast = value.(bool)
		case "format":
			merged.Spec.Format = value.(string)
		case "select":
			merged.Spec.Selector = value.(string)
		case "overwrite":
			switch command {
			case flagparse.Build, flagparse.Init:
				merged.Build.Overwrite = value.(bool)
			default:
			}
		case "dir-perm":
			merged.Build.DirPerm = value.(string)
		case "file-perm":
			merged.Build.FilePerm = value.(string)
		case "archive":
			merged.Archive.Enabled = value.(bool)
		case "archive-format":
			merged.Archive.Format = value.(string)
		case "archive-level":
			merged.Archive.Level = value.(string)
		case "post-build-hooks":
			merged.Hooks.PostBuild = value.([]string)
		default:
			plog.Debug("unhandled flag in MergeConfigWithFlags", "flag", name)
		}
	}
	return merged
}
