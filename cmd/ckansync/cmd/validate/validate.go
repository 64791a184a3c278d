package validate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/agentstation/ckansync/internal/cmd/alerts"
	"github.com/agentstation/ckansync/internal/cmd/application"
	"github.com/agentstation/ckansync/internal/cmd/output"
	"github.com/agentstation/ckansync/internal/config"
	"github.com/agentstation/ckansync/internal/tables"
	"github.com/agentstation/ckansync/internal/validation"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
)

// Execute validates the configured input tables. A report with issues is
// printed and returned as a ValidationError.
func Execute(ctx context.Context, app application.Application, flags Flags, stdout, stderr io.Writer) error {
	cfg := app.Config()
	logger := logging.FromContext(logging.WithLogger(ctx, app.Logger()))

	if err := cfg.ValidateTables(); err != nil {
		return err
	}
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}

	in, err := readInputs(cfg)
	if err != nil {
		return err
	}
	report := validation.Validate(in)
	logger.Debug().Int("issues", report.Total()).Msg("Validated input tables")

	if flags.ReportFile != "" {
		if err := writeReport(flags.ReportFile, report); err != nil {
			return err
		}
	}
	if err := output.Write(stdout, format, report); err != nil {
		return err
	}

	if !report.OK() {
		return &errors.ValidationError{
			Field:   "inputs",
			Value:   report.Total(),
			Message: fmt.Sprintf("%d issue(s) found", report.Total()),
		}
	}
	if app.Quiet() {
		return nil
	}
	return alerts.NewFormatWriter(stderr, format, app.NoColor()).
		WriteAlert(alerts.NewSuccess("Input tables are valid"))
}

func readInputs(cfg *config.Config) (validation.Inputs, error) {
	var in validation.Inputs
	var err error

	if in.Organizations, err = tables.ReadOrganizations(cfg.OrganizationListPath); err != nil {
		return in, err
	}
	if cfg.GroupListPath != "" {
		if in.Groups, err = tables.ReadGroups(cfg.GroupListPath); err != nil {
			return in, err
		}
	}
	vocabulary, err := tables.Read(cfg.VocabularyListPath)
	if err != nil {
		return in, err
	}
	in.Vocabulary = vocabulary.Rows
	tags, err := tables.Read(cfg.TagListPath)
	if err != nil {
		return in, err
	}
	in.Tags = tags.Rows
	if in.Datasets, err = tables.ReadMasterRecords(cfg.DatasetListPath); err != nil {
		return in, err
	}
	return in, nil
}

func writeReport(path string, report *validation.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := report.WriteText(f); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}
