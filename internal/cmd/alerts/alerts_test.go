package alerts

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ckansync/internal/cmd/output"
	"github.com/agentstation/ckansync/pkg/errors"
)

func TestAlertString(t *testing.T) {
	a := NewError("import of %s failed", "alcoi").WithError(errors.New("catalog unavailable"))
	assert.Equal(t, "✗ import of alcoi failed: catalog unavailable", a.String())
	assert.Equal(t, "✓ done", NewSuccess("done").String())
}

func TestWriterTo(t *testing.T) {
	var buf bytes.Buffer
	alert := NewWarning("2 datasets failed").WithDetails("alcoi-padron: boom", "alcoi-obras: bang")
	require.NoError(t, NewWriterTo(&buf).WriteAlert(alert))
	assert.Equal(t, "! 2 datasets failed\n   alcoi-padron: boom\n   alcoi-obras: bang\n", buf.String())
}

func TestFormatWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatJSON, false)
	require.NoError(t, w.WriteAlert(NewInfo("dry run").WithDetails("no changes made")))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "dry run", got["message"])
}

func TestFormatWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatYAML, false)
	require.NoError(t, w.WriteAlert(NewError("failed").WithError(errors.New("boom"))))
	assert.Contains(t, buf.String(), "level: error")
	assert.Contains(t, buf.String(), "error: boom")
}

func TestFormatWriterTableHasNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable, false)
	require.NoError(t, w.WriteAlert(NewSuccess("import finished")))
	assert.Equal(t, "✓ import finished\n", buf.String())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "unknown(9)", Level(9).String())
}
