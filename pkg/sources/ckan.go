package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
	"github.com/agentstation/ckansync/pkg/translate"
)

// FullMetadataPath returns the sibling full-metadata export of a CKAN
// summary file: meta_<rest> pairs with all_<rest>.
func FullMetadataPath(file string) string {
	base := filepath.Base(file)
	return filepath.Join(filepath.Dir(file), "all"+strings.TrimPrefix(base, "meta"))
}

// ckanOverlay replaces title, notes and resource details with the richer
// values of the portal's full package export.
func ckanOverlay(ctx context.Context, in *Input, ds *catalogs.Dataset) error {
	path := FullMetadataPath(in.File)
	full, err := ReadRecord(path)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Debug().Str("file", path).Msg("Completing dataset with full CKAN metadata")

	name := full.String("name")
	ds.Title = in.Resolver.Resolve("title", full, name, translate.Mandatory(name))
	ds.Notes = in.Resolver.Resolve("notes", full, full.String("title"))

	byURL := make(map[string]Record)
	list, _ := full["resources"].([]any)
	for _, item := range list {
		if r, ok := item.(map[string]any); ok {
			byURL[translate.String(r, "url")] = Record(r)
		}
	}

	for i := range ds.Resources {
		res := &ds.Resources[i]
		fr, ok := byURL[res.URL]
		if !ok {
			return errors.NewSourceShapeError(path, "resources", fmt.Sprintf("no resource with url %q", res.URL))
		}
		res.Name = in.Resolver.Resolve("name", fr, fr.String("id"))
		res.Description = in.Resolver.Resolve("description", fr, fr.String("name"))
		res.Format = fr.String("format")
		if strings.EqualFold(strings.TrimSpace(res.Format), "shape") {
			res.Format = "Shape"
		}
		res.Mimetype = fr.String("mimetype")
		res.Size = catalogs.ParseSize(fr["size"])
	}
	return nil
}
