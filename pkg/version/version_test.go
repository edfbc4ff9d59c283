package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/removestar/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	banner := version.String()

	assert.True(t, strings.HasPrefix(banner, "removestar "+version.Version+" "))
	assert.Contains(t, banner, "commit: "+version.Commit)
	assert.Contains(t, banner, "built: "+version.Date)
	assert.NotEmpty(t, version.Version)
}
