package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulschiretz/pgl-tree/pkg/buildinfo"
	"github.com/paulschiretz/pgl-tree/pkg/flagparse"
)

func TestConfig_Validate(t *testing.T) {
	// Helper to get a valid base config for testing
	newValidConfig := func(t *testing.T) Config {
		cfg := NewDefault()
		cfg.OutputDir = t.TempDir()
		cfg.Runtime.SpecPath = "project.json"
		return cfg
	}

	t.Run("Valid Config", func(t *testing.T) {
		cfg := newValidConfig(t)
		if err := cfg.Validate(true); err != nil {
			t.Errorf("expected valid config to pass validation, but got error: %v", err)
		}
	})

	t.Run("Empty Spec Path", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.Runtime.SpecPath = ""
		if err := cfg.Validate(true); err == nil {
			t.Error("expected error for empty spec path, but got nil")
		}
		if err := cfg.Validate(false); err != nil {
			t.Errorf("expected no spec path check when not requested, got: %v", err)
		}
	})

	t.Run("Empty Output Path", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.OutputDir = ""
		if err := cfg.Validate(true); err == nil {
			t.Error("expected error for empty output path, but got nil")
		}
	})

	t.Run("Invalid Log Level", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.LogLevel = "loud"
		err := cfg.Validate(true)
		if err == nil {
			t.Fatal("expected error for invalid log level, but got nil")
		}
		if !strings.Contains(err.Error(), "logLevel") {
			t.Errorf("expected the error to name the config field, got: %v", err)
		}
	})

	t.Run("Invalid Spec Format", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.Spec.Format = "xml"
		if err := cfg.Validate(true); err == nil {
			t.Error("expected error for invalid spec format, but got nil")
		}
	})

	t.Run("Invalid Archive Format", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.Archive.Format = "rar"
		err := cfg.Validate(true)
		if err == nil {
			t.Fatal("expected error for invalid archive format, but got nil")
		}
		if !strings.Contains(err.Error(), "archive.format") {
			t.Errorf("expected the error to name archive.format, got: %v", err)
		}
	})

	t.Run("Invalid Permission", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.Build.FilePerm = "0999"
		if err := cfg.Validate(true); err == nil {
			t.Error("expected error for invalid file permission, but got nil")
		}
	})

	t.Run("Empty Hook Command", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.Hooks.PostBuild = []string{"git init", "  "}
		if err := cfg.Validate(true); err == nil {
			t.Error("expected error for empty hook command, but got nil")
		}
	})

	t.Run("Output Path Is Cleaned", func(t *testing.T) {
		cfg := newValidConfig(t)
		base := cfg.OutputDir
		cfg.OutputDir = base + string(filepath.Separator) + "sub" + string(filepath.Separator) + ".."
		if err := cfg.Validate(true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.OutputDir != base {
			t.Errorf("expected cleaned output %q, got %q", base, cfg.OutputDir)
		}
	})
}

func TestLoadAndGenerate(t *testing.T) {
	t.Run("Missing File Yields Defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Build.FilePerm != "0644" || cfg.Build.DirPerm != "0755" {
			t.Errorf("expected default permissions, got %s/%s", cfg.Build.DirPerm, cfg.Build.FilePerm)
		}
		if cfg.OutputDir != dir {
			t.Errorf("expected output dir %q, got %q", dir, cfg.OutputDir)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		dir := t.TempDir()
		cfg := NewDefault()
		cfg.OutputDir = dir
		cfg.Build.Overwrite = true
		cfg.Archive.Enabled = true
		cfg.Archive.Format = "tar.zst"
		cfg.Hooks.PostBuild = []string{"git init"}
		if err := Generate(cfg); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		loaded, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !loaded.Build.Overwrite || !loaded.Archive.Enabled || loaded.Archive.Format != "tar.zst" {
			t.Errorf("loaded config does not match generated one: %+v", loaded)
		}
		if len(loaded.Hooks.PostBuild) != 1 || loaded.Hooks.PostBuild[0] != "git init" {
			t.Errorf("expected hooks to survive the round trip, got %v", loaded.Hooks.PostBuild)
		}
		if loaded.Version != buildinfo.Version {
			t.Errorf("expected version %q, got %q", buildinfo.Version, loaded.Version)
		}
	})

	t.Run("Partial File Keeps Defaults", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"build": {"overwrite": true}}`), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Build.Overwrite {
			t.Error("expected overwrite from file")
		}
		if cfg.Build.FilePerm != "0644" {
			t.Errorf("expected default file permission to survive, got %q", cfg.Build.FilePerm)
		}
	})

	t.Run("Malformed File", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{not json`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(dir); err == nil {
			t.Error("expected an error for a malformed config file")
		}
	})
}

func TestMergeConfigWithFlags(t *testing.T) {
	base := NewDefault()
	base.Hooks.PostBuild = []string{"from-file"}

	setFlags := map[string]any{
		"spec":             "p.yaml",
		"out":              "/tmp/out",
		"dry-run":          true,
		"quiet":            true,
		"overwrite":        true,
		"select":           "$.project",
		"archive":          true,
		"archive-format":   "tar.gz",
		"post-build-hooks": []string{"go mod tidy"},
	}
	merged := MergeConfigWithFlags(flagparse.Build, base, setFlags)

	if merged.Runtime.SpecPath != "p.yaml" || merged.OutputDir != "/tmp/out" {
		t.Errorf("expected spec and out to be merged, got %q / %q", merged.Runtime.SpecPath, merged.OutputDir)
	}
	if !merged.Runtime.DryRun || !merged.Runtime.Quiet || !merged.Build.Overwrite {
		t.Error("expected boolean flags to be merged")
	}
	if merged.Spec.Selector != "$.project" {
		t.Errorf("expected selector to be merged, got %q", merged.Spec.Selector)
	}
	if !merged.Archive.Enabled || merged.Archive.Format != "tar.gz" {
		t.Error("expected archive flags to be merged")
	}
	if len(merged.Hooks.PostBuild) != 1 || merged.Hooks.PostBuild[0] != "go mod tidy" {
		t.Errorf("expected flag hooks to replace file hooks, got %v", merged.Hooks.PostBuild)
	}
	if base.Hooks.PostBuild[0] != "from-file" {
		t.Error("base config must not be modified")
	}
	if merged.LogLevel != base.LogLevel {
		t.Error("unset flags must keep the base value")
	}
}
