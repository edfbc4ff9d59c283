package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/removestar/pkg/config"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/walker"
)

const sampleDiff = "--- original/m.py\n+++ fixed/m.py\n@@ -1,2 +1,2 @@\n-from .a import *\n+from .a import f\n f()\n"

func TestPainter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	assert.False(t, newPainter(config.ColorAuto, &buf).enabled)
	assert.False(t, newPainter(config.ColorNever, &buf).enabled)
	assert.True(t, newPainter(config.ColorAlways, &buf).enabled)

	assert.Equal(t, sampleDiff, painter{}.diff(sampleDiff))

	colored := painter{enabled: true}.diff(sampleDiff)
	assert.NotEqual(t, sampleDiff, colored)
	assert.Contains(t, colored, "\x1b[")
	assert.Equal(t, strings.Count(sampleDiff, "\n"), strings.Count(colored, "\n"))
	assert.Contains(t, colored, " f()\n", "context lines stay plain")
}

func TestSummaryExitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sum  summary
		want int
	}{
		{"clean", summary{files: 3}, ExitClean},
		{"changed", summary{files: 3, changed: 1}, ExitChanged},
		{"failed wins", summary{files: 3, changed: 2, failed: 1}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, exitCode(t, tt.sum.exitError()))
		})
	}
}

func TestWorkerCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, runtime.NumCPU(), workerCount(0))
	assert.Equal(t, 3, workerCount(3))
}

func TestFixAll(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"helpers.py": helpersModule,
		"main.py":    "from .helpers import *\nload()\n",
	})
	entries := []walker.Entry{
		{Path: filepath.Join(dir, "main.py")},
		{Path: filepath.Join(dir, "gone.py"), Err: os.ErrNotExist},
	}
	fixer := removestar.NewFixer(removestar.DefaultOptions())

	outcomes, err := fixAll(context.Background(), fixer, entries, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.NoError(t, outcomes[0].err)
	assert.Equal(t, "from .helpers import load\nload()\n", outcomes[0].result.Source)
	assert.True(t, outcomes[1].missing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err = fixAll(ctx, fixer, entries, 1)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 2)
	assert.Nil(t, outcomes[0].result)
	assert.True(t, outcomes[1].missing)
}

func TestLoadConfig_Flags(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	registerConfigFlags(cmd.Flags())

	require.NoError(t, cmd.Flags().Parse([]string{
		"--max-line-length", "42",
		"-j", "8",
		"--exclude", "build/,*_pb2.py",
		"--dynamic-timeout", "3s",
		"--no-skip-init",
		"--no-dynamic-importing",
		"--no-color",
	}))

	cfg, err := loadConfig(cmd.Flags(), "")
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.MaxLineLength)
	assert.Equal(t, 8, cfg.Jobs)
	assert.Equal(t, []string{"build/", "*_pb2.py"}, cfg.Exclude)
	assert.Equal(t, "3s", cfg.DynamicTimeout.String())
	assert.False(t, cfg.SkipInit)
	assert.False(t, cfg.AllowDynamic)
	assert.Equal(t, config.ColorNever, cfg.Color)

	opts := fixOptions(cfg)
	assert.Equal(t, 42, opts.MaxLineLength)
	assert.False(t, opts.AllowDynamic)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	registerConfigFlags(cmd.Flags())

	cfg, err := loadConfig(cmd.Flags(), "")
	require.NoError(t, err)

	want := config.Default()
	assert.Equal(t, &want, cfg)
}
