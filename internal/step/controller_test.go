package step

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jsm-form-agent/pkg/apperr"
)

func TestPauseDisabledNeverBlocks(t *testing.T) {
	var out bytes.Buffer

	// No input lines at all: a disabled controller must not try to read.
	c := NewController(false, nil, strings.NewReader(""), &out, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Pause("checkpoint"))
	}

	assert.False(t, c.Enabled())
	assert.Empty(t, out.String())
}

func TestPauseBlocksUntilAcknowledged(t *testing.T) {
	var out bytes.Buffer

	c := NewController(true, nil, strings.NewReader("\n\n"), &out, zap.NewNop())

	require.NoError(t, c.Pause("open ticket"))
	require.NoError(t, c.Pause("fill form"))

	assert.Contains(t, out.String(), "=== Step 1: open ticket ===")
	assert.Contains(t, out.String(), "=== Step 2: fill form ===")
	assert.Contains(t, out.String(), "Press Enter to continue...")
}

func TestPauseSkipsConfiguredSteps(t *testing.T) {
	var out bytes.Buffer

	// Steps 1 and 3 are skipped, so only step 2 consumes an input line.
	c := NewController(true, []int{1, 3}, strings.NewReader("\n"), &out, zap.NewNop())

	require.NoError(t, c.Pause("first"))
	require.NoError(t, c.Pause("second"))
	require.NoError(t, c.Pause("third"))

	assert.Contains(t, out.String(), "--- Skipping Step 1: first")
	assert.Contains(t, out.String(), "=== Step 2: second ===")
	assert.Contains(t, out.String(), "--- Skipping Step 3: third")
}

func TestPauseReadFailure(t *testing.T) {
	var out bytes.Buffer

	// The reader is exhausted, so the acknowledgment read hits EOF.
	c := NewController(true, nil, strings.NewReader(""), &out, zap.NewNop())

	err := c.Pause("open ticket")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}
