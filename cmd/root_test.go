package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartProfiler(t *testing.T) {
	t.Run("returns a callable no-op stop when no profiler is requested", func(t *testing.T) {
		for _, v := range []string{"", "bogus"} {
			profiler = v
			stop := startProfiler()
			require.NotNil(t, stop)
			assert.NotPanics(t, stop)
		}
		profiler = ""
	})
}
