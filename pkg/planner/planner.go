package planner

import (
	"fmt"

	"github.com/paulschiretz/pgl-tree/pkg/archive"
	"github.com/paulschiretz/pgl-tree/pkg/config"
	"github.com/paulschiretz/pgl-tree/pkg/hook"
	"github.com/paulschiretz/pgl-tree/pkg/preflight"
	"github.com/paulschiretz/pgl-tree/pkg/spec"
	"github.com/paulschiretz/pgl-tree/pkg/treebuild"
	"github.com/paulschiretz/pgl-tree/pkg/util"
)

type BuildPlan struct {
	DryRun   bool
	FailFast bool
	Metrics  bool

	SpecPath  string
	OutputDir string

	Spec      spec.LoadOptions
	Preflight *preflight.Plan
	Build     treebuild.Options
	Archive   *archive.Plan
	Hooks     *hook.Plan
}

type TreePlan struct {
	SpecPath string
	Spec     spec.LoadOptions
}

func GenerateBuildPlan(cfg config.Config) (*BuildPlan, error) {

	// Global Flags
	dryRun := cfg.Runtime.DryRun
	failFast := cfg.Engine.FailFast
	metrics := cfg.Engine.Metrics

	specOpts, err := loadOptions(cfg)
	if err != nil {
		return nil, err
	}

	dirPerm, err := util.ParsePerm(cfg.Build.DirPerm, util.UserWritableDirPerms)
	if err != nil {
		return nil, fmt.Errorf("build.dirPerm: %w", err)
	}
	filePerm, err := util.ParsePerm(cfg.Build.FilePerm, util.UserWritableFilePerms)
	if err != nil {
		return nil, fmt.Errorf("build.filePerm: %w", err)
	}

	archiveFormat, err := archive.ParseFormat(cfg.Archive.Format)
	if err != nil {
		return nil, err
	}
	archiveLevel, err := archive.ParseLevel(cfg.Archive.Level)
	if err != nil {
		return nil, err
	}

	// finish the plan
	return &BuildPlan{
		DryRun:   dryRun,
		FailFast: failFast,
		Metrics:  metrics,

		SpecPath:  cfg.Runtime.SpecPath,
		OutputDir: cfg.OutputDir,

		Spec: specOpts,
		Preflight: &preflight.Plan{
			OutputAccessible: true,
			OutputWritable:   true,
			RootIsDirectory:  true,
			// Global Flags
			DryRun: dryRun,
		},
		Build: treebuild.Options{
			DryRun:         dryRun,
			OverwriteFiles: cfg.Build.Overwrite,
			Verbose:        !cfg.Runtime.Quiet,
			DirPerm:        dirPerm,
			FilePerm:       filePerm,
		},
		Archive: &archive.Plan{
			Enabled: cfg.Archive.Enabled,
			Format:  archiveFormat,
			Level:   archiveLevel,
			// Global Flags
			DryRun: dryRun,
		},
		Hooks: &hook.Plan{
			Enabled:  len(cfg.Hooks.PostBuild) > 0,
			Commands: append([]string(nil), cfg.Hooks.PostBuild...),
			// Global Flags
			DryRun:   dryRun,
			FailFast: failFast,
		},
	}, nil
}

func GenerateTreePlan(cfg config.Config) (*TreePlan, error) {
	specOpts, err := loadOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &TreePlan{
		SpecPath: cfg.Runtime.SpecPath,
		Spec:     specOpts,
	}, nil
}

func loadOptions(cfg config.Config) (spec.LoadOptions, error) {
	opts := spec.LoadOptions{Selector: cfg.Spec.Selector}
	if cfg.Spec.Format != "" {
		format, err := spec.ParseFormat(cfg.Spec.Format)
		if err != nil {
			return spec.LoadOptions{}, err
		}
		opts.Format = format
	}
	return opts, nil
}
