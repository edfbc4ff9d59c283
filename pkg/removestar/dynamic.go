package removestar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
)

// Defaults for the dynamic importer.
const (
	DefaultPython         = "python3"
	DefaultDynamicTimeout = 10 * time.Second
)

// importProgram prints the public names of the module named by argv[2],
// importing it with argv[1] first on sys.path.
const importProgram = `import importlib, json, sys
sys.path.insert(0, sys.argv[1])
mod = importlib.import_module(sys.argv[2])
names = getattr(mod, "__all__", None)
if names is None:
    names = [n for n in dir(mod) if not n.startswith("_")]
json.dump(sorted({str(n) for n in names}), sys.stdout)
`

var errEmptyOutput = errors.New("interpreter produced no output")

// DynamicImporter resolves absolute module references by importing them in
// a Python interpreter subprocess.
type DynamicImporter struct {
	Python  string
	Timeout time.Duration
}

// NewDynamicImporter returns an importer using python (DefaultPython when
// empty) with the given timeout (DefaultDynamicTimeout when not positive).
func NewDynamicImporter(python string, timeout time.Duration) *DynamicImporter {
	if python == "" {
		python = DefaultPython
	}

	if timeout <= 0 {
		timeout = DefaultDynamicTimeout
	}

	return &DynamicImporter{Python: python, Timeout: timeout}
}

// Names imports module with directory on sys.path and returns the names a
// star import of it provides. Every failure wraps ErrModuleNotFound.
func (d *DynamicImporter) Names(ctx context.Context, module, directory string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, d.Python, "-c", importProgram, directory, module)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: import timed out after %s", ErrModuleNotFound, module, d.Timeout)
		}

		return nil, fmt.Errorf("%w: %s: %s", ErrModuleNotFound, module, lastLine(stderr.String(), err))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrModuleNotFound, module, errEmptyOutput)
	}

	var names []string

	err = json.Unmarshal(stdout.Bytes(), &names)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode names: %w", ErrModuleNotFound, module, err)
	}

	out := names[:0]

	for _, name := range names {
		if !pyscope.IsImplicit(name) {
			out = append(out, name)
		}
	}

	return out, nil
}

// lastLine returns the final non-empty line of an interpreter's stderr, which
// holds the exception message, or the process error when stderr is empty.
func lastLine(stderr string, fallback error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}

	return fallback.Error()
}
