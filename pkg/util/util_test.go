package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithUserWritePermission(t *testing.T) {
	testCases := []struct {
		name     string
		input    os.FileMode
		expected os.FileMode
	}{
		{name: "Read-only permission", input: 0444, expected: 0644},
		{name: "Already has write permission", input: 0755, expected: 0755},
		{name: "No permissions", input: 0000, expected: 0200},
		{name: "Execute-only permission", input: 0111, expected: 0311},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := WithUserWritePermission(tc.input)
			if result != tc.expected {
				t.Errorf("expected permission %o, but got %o", tc.expected, result)
			}
		})
	}
}

func TestWithUserExecutePermission(t *testing.T) {
	if got := WithUserExecutePermission(0644); got != 0744 {
		t.Errorf("expected 0744, got %o", got)
	}
}

func TestParsePerm(t *testing.T) {
	testCases := []struct {
		input   string
		want    os.FileMode
		wantErr bool
	}{
		{input: "0755", want: 0755},
		{input: "644", want: 0644},
		{input: "0o600", want: 0600},
		{input: "  0750 ", want: 0750},
		{input: "", want: 0700},
		{input: "0999", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "04755", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParsePerm(tc.input, 0700)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q, got mode %o", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParsePerm(%q) = %o, want %o", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormatPerm(t *testing.T) {
	if got := FormatPerm(0644); got != "0644" {
		t.Errorf("FormatPerm(0644) = %q, want %q", got, "0644")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got, err := ExpandPath("~/projects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, "projects"); got != want {
		t.Errorf("ExpandPath = %q, want %q", got, want)
	}

	got, err = ExpandPath("relative/dir")
	if err != nil || got != "relative/dir" {
		t.Errorf("expected path without tilde to be unchanged, got %q (err %v)", got, err)
	}
}

func TestInvertMap(t *testing.T) {
	inv := InvertMap(map[int]string{1: "one", 2: "two"})
	if inv["one"] != 1 || inv["two"] != 2 || len(inv) != 2 {
		t.Errorf("unexpected inverted map: %v", inv)
	}
}
