package sources

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
	"github.com/agentstation/ckansync/pkg/translate"
)

// ccByURL is rewritten to the catalog's cc-by license id.
const ccByURL = "http://www.opendefinition.org/licenses/cc-by"

type baseAdapter struct {
	org      *catalogs.Organization
	strategy Strategy
	resolver *translate.Resolver
}

// Adapt implements Adapter.
func (a *baseAdapter) Adapt(ctx context.Context, file string, rec Record) (*catalogs.Dataset, error) {
	layout := a.strategy.Layout

	id := ""
	for _, key := range layout.IDKeys {
		if id = rec.String(key); id != "" {
			break
		}
	}
	if id == "" {
		return nil, errors.NewSourceShapeError(file, strings.Join(layout.IDKeys, "|"), "missing dataset identifier")
	}

	name := a.org.Name + "-" + id
	if layout.CustomIDKey != "" {
		if custom := rec.String(layout.CustomIDKey); custom != "" {
			name = custom + "-" + name
		}
	}
	name = a.truncateName(ctx, name)

	title := a.resolver.Resolve(layout.TitleKey, rec, id, translate.Mandatory(id))

	ds := &catalogs.Dataset{
		Name:     name,
		Title:    title,
		Notes:    a.resolver.Resolve(layout.DescriptionKey, rec, rec.String(layout.TitleKey)),
		URL:      layout.SourceURL(a.org, id),
		OwnerOrg: a.org.Name,
		Location: a.org.Territory,
	}

	ds.LicenseID = rec.String(layout.LicenseKey)
	if ds.LicenseID == "" {
		ds.LicenseID = a.org.LicenseID
	}
	if strings.EqualFold(strings.TrimSpace(ds.LicenseID), ccByURL) {
		ds.LicenseID = "cc-by"
	}

	spatial, err := a.org.SpatialJSON()
	if err != nil {
		return nil, errors.WrapParse("json", "organization "+a.org.Name+" spatial", err)
	}
	ds.Spatial = spatial

	ds.OriginalTags = joinThemes(rec[layout.ThemeKey])

	raw, ok := rec[layout.ResourcesKey]
	if !ok {
		return nil, errors.NewSourceShapeError(file, layout.ResourcesKey, "missing resources")
	}
	resources, err := a.resources(file, id, raw)
	if err != nil {
		return nil, err
	}
	ds.Resources = resources

	in := &Input{File: file, Record: rec, ID: id, Organization: a.org, Resolver: a.resolver}
	for _, hook := range a.strategy.Hooks {
		if err := hook(ctx, in, ds); err != nil {
			return nil, err
		}
	}

	for _, lang := range catalogs.Langs() {
		if prefix := a.org.Shortname.Get(lang); prefix != "" {
			ds.Title.Set(lang, prefix+": "+ds.Title.Get(lang))
		}
	}

	return ds, nil
}

// truncateName enforces the catalog's name length limit.
func (a *baseAdapter) truncateName(ctx context.Context, name string) string {
	short := TruncateName(name, a.strategy.SeparatorAwareNames)
	if short != name {
		logging.FromContext(ctx).Warn().
			Str("name", name).
			Str("truncated", short).
			Msg("Dataset name shortened")
	}
	return short
}

// TruncateName cuts name to catalogs.MaxNameLength. With separatorAware set
// the result is further cut back to its last "-".
func TruncateName(name string, separatorAware bool) string {
	if len(name) <= catalogs.MaxNameLength {
		return name
	}
	n := catalogs.MaxNameLength
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	short := name[:n]
	if separatorAware {
		if i := strings.LastIndex(short, "-"); i > 0 {
			short = short[:i]
		}
	}
	return short
}

// joinThemes joins the free-text theme labels of a record.
func joinThemes(v any) string {
	switch themes := v.(type) {
	case string:
		return themes
	case []any:
		labels := make([]string, 0, len(themes))
		for _, t := range themes {
			if s, ok := t.(string); ok {
				labels = append(labels, s)
			}
		}
		return strings.Join(labels, ", ")
	}
	return ""
}
