package hook_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulschiretz/pgl-tree/pkg/hints"
	"github.com/paulschiretz/pgl-tree/pkg/hook"
)

// TestHelperProcess is a helper for testing exec.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) > 0 && strings.Contains(args[0], "fail") {
		os.Exit(1)
	}
	if len(args) > 0 && strings.Contains(args[0], "mark") {
		// Leave a marker in the working directory recording the root variable.
		if err := os.WriteFile("hook-ran", []byte(os.Getenv(hook.RootEnvVar)), 0644); err != nil {
			os.Exit(2)
		}
	}
	os.Exit(0)
}

func mockExecutor(ctx context.Context, name string, arg ...string) *exec.Cmd {
	// Unwrap the shell: "/bin/sh -c <cmd>" or "cmd /C <cmd>".
	var cmdLine string
	if len(arg) > 1 && (arg[0] == "/C" || arg[0] == "-c") {
		cmdLine = strings.Join(arg[1:], " ")
	} else {
		cmdLine = name + " " + strings.Join(arg, " ")
	}

	cs := []string{"-test.run=TestHelperProcess", "--", cmdLine}
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

func TestExecutor(t *testing.T) {
	tests := []struct {
		name          string
		plan          *hook.Plan
		expectError   bool
		expectHint    bool
		errorContains string
	}{
		{
			name:        "Success",
			plan:        &hook.Plan{Enabled: true, Commands: []string{"echo post-build-works"}},
			expectError: false,
		},
		{
			name:          "Failure with FailFast",
			plan:          &hook.Plan{Enabled: true, Commands: []string{"fail this"}, FailFast: true},
			expectError:   true,
			errorContains: "command 'fail this' failed",
		},
		{
			name:        "Failure without FailFast",
			plan:        &hook.Plan{Enabled: true, Commands: []string{"fail this", "echo next"}},
			expectError: false,
		},
		{
			name:        "Disabled",
			plan:        &hook.Plan{Enabled: false, Commands: []string{"echo x"}},
			expectError: true,
			expectHint:  true,
		},
		{
			name:        "Nothing to execute",
			plan:        &hook.Plan{Enabled: true},
			expectError: true,
			expectHint:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			executor := hook.NewExecutor(mockExecutor)
			err := executor.Run(context.Background(), t.TempDir(), tc.plan)

			if tc.expectError {
				if err == nil {
					t.Fatal("expected error, but got nil")
				}
				if tc.expectHint != hints.IsHint(err) {
					t.Errorf("expected hint=%v, got error: %v", tc.expectHint, err)
				}
				if tc.errorContains != "" && !strings.Contains(err.Error(), tc.errorContains) {
					t.Errorf("expected error to contain %q, but got: %v", tc.errorContains, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestExecutor_RunsInRootDir(t *testing.T) {
	root := t.TempDir()
	executor := hook.NewExecutor(mockExecutor)

	if err := executor.Run(context.Background(), root, &hook.Plan{Enabled: true, Commands: []string{"mark"}, FailFast: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "hook-ran"))
	if err != nil {
		t.Fatalf("expected the hook to run inside the root directory: %v", err)
	}
	if string(data) != root {
		t.Errorf("expected %s=%q, got %q", hook.RootEnvVar, root, string(data))
	}
}

func TestExecutor_DryRunExecutesNothing(t *testing.T) {
	root := t.TempDir()
	executor := hook.NewExecutor(mockExecutor)

	if err := executor.Run(context.Background(), root, &hook.Plan{Enabled: true, Commands: []string{"mark"}, DryRun: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "hook-ran")); !os.IsNotExist(err) {
		t.Errorf("expected no marker in dry run, stat returned: %v", err)
	}
}

func TestExecutor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := hook.NewExecutor(mockExecutor)
	err := executor.Run(ctx, t.TempDir(), &hook.Plan{Enabled: true, Commands: []string{"echo x"}})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
