package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ckansync/pkg/logging"
)

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRunID(ctx, "run-1")
	ctx = logging.WithOrganization(ctx, "valencia")
	ctx = logging.WithDataset(ctx, "valencia-arbolado")
	ctx = logging.WithOperation(ctx, "create")

	logging.FromContext(ctx).Info().Msg("dataset created")

	lines := tl.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"run_id":"run-1"`)
	assert.Contains(t, lines[0], `"organization":"valencia"`)
	assert.Contains(t, lines[0], `"dataset":"valencia-arbolado"`)
	assert.Contains(t, lines[0], `"operation":"create"`)
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"file":    "meta_1.json",
		"retries": 2,
		"dry_run": true,
	})
	logging.FromContext(ctx).Warn().Msg("skipping")

	tl.AssertContains(t, `"file":"meta_1.json"`)
	tl.AssertContains(t, `"retries":2`)
	tl.AssertContains(t, `"dry_run":true`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))

	ctx := logging.WithLogger(context.Background(), nil)
	assert.Equal(t, logging.Default(), logging.FromContext(ctx))
}
