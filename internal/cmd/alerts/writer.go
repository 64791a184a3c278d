package alerts

import (
	"encoding/json"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/agentstation/ckansync/internal/cmd/output"
)

// FormatWriter writes alerts in the output format of the command, so a
// script reading JSON from stdout can also parse the notices on stderr.
type FormatWriter struct {
	writer io.Writer
	format output.Format
	color  bool
}

// NewFormatWriter creates a new FormatWriter for the specified format.
// Color is used only when w is a terminal and noColor is false.
func NewFormatWriter(w io.Writer, format output.Format, noColor bool) *FormatWriter {
	return &FormatWriter{
		writer: w,
		format: format,
		color:  !noColor && isTerminal(w),
	}
}

// WriteAlert writes an alert in the configured format.
func (fw *FormatWriter) WriteAlert(alert *Alert) error {
	switch fw.format {
	case output.FormatJSON:
		return json.NewEncoder(fw.writer).Encode(toAlertData(alert))
	case output.FormatYAML:
		data, err := yaml.Marshal(toAlertData(alert))
		if err != nil {
			return err
		}
		_, err = fw.writer.Write(append([]byte("---\n"), data...))
		return err
	default:
		return writeText(fw.writer, alert, fw.color)
	}
}

// alertData represents alert data for structured output.
type alertData struct {
	Level   string   `json:"level" yaml:"level"`
	Message string   `json:"message" yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func toAlertData(alert *Alert) alertData {
	data := alertData{
		Level:   alert.Level.String(),
		Message: alert.Message,
		Details: alert.Details,
	}
	if alert.Err != nil {
		data.Error = alert.Err.Error()
	}
	return data
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
