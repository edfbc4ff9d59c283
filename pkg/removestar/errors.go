package removestar

import (
	"errors"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
)

// Sentinel errors. Each aborts the fix of the current file only.
var (
	// ErrSyntax indicates the file being fixed is not valid Python.
	ErrSyntax = pyast.ErrSyntax
	// ErrModuleParse indicates a star-imported module was found but could not be parsed.
	ErrModuleParse = errors.New("could not parse module")
	// ErrModuleNotFound indicates a star-imported module could not be located or imported.
	ErrModuleNotFound = errors.New("module not found")
	// ErrNotImplemented indicates an absolute star import with dynamic importing disabled.
	ErrNotImplemented = errors.New("non-relative imports are not supported without dynamic importing")
)
