package treebuild

import (
	"errors"

	"github.com/paulschiretz/pgl-tree/pkg/confine"
	"github.com/paulschiretz/pgl-tree/pkg/spec"
)

// ErrIO wraps an underlying filesystem failure while creating a directory or writing a file.
var ErrIO = errors.New("filesystem error")

// Re-exported so callers of the builder can match every failure kind from one package.
var (
	ErrOutOfBoundsPath       = confine.ErrOutOfBoundsPath
	ErrMissingOrInvalidField = spec.ErrMissingOrInvalidField
	ErrInvalidEntryType      = spec.ErrInvalidEntryType
)
