package sources

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
)

// stemLength is how much of the dataset identifier generated resource names
// keep.
const stemLength = 80

// resources builds the canonical resources from the raw resources value.
func (a *baseAdapter) resources(file, id string, raw any) ([]catalogs.Resource, error) {
	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case string, map[string]any:
		items = []any{v}
	default:
		return nil, errors.NewSourceShapeError(file, "resources", fmt.Sprintf("unexpected type %T", raw))
	}

	resources := make([]catalogs.Resource, 0, len(items))
	for i, item := range items {
		res, err := a.resource(file, id, item, i, len(items))
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func (a *baseAdapter) resource(file, id string, item any, index, total int) (catalogs.Resource, error) {
	field := "resources[" + strconv.Itoa(index) + "]"

	var rec Record
	switch v := item.(type) {
	case string:
		rec = Record{"downloadUrl": v}
	case map[string]any:
		rec = Record(v)
	default:
		return catalogs.Resource{}, errors.NewSourceShapeError(file, field, fmt.Sprintf("unexpected type %T", item))
	}

	url, err := selectURL(file, field, rec)
	if err != nil {
		return catalogs.Resource{}, err
	}

	res := catalogs.Resource{
		URL:      url,
		Format:   Format(url),
		Mimetype: extension(rec.String("path")),
	}

	switch name := rec["name"].(type) {
	case string:
		if name != "" {
			res.Name = catalogs.Uniform(name)
		}
	case map[string]any:
		res.Name = a.resolver.Resolve("name", rec, "")
	}
	if res.Name.IsZero() {
		res.Name = catalogs.Uniform(ResourceName(url, id, index, total))
	}

	return res, nil
}

// selectURL picks the download URL of a resource. When several URLs are
// listed the one whose parallel media type is csv wins, else the first.
func selectURL(file, field string, rec Record) (string, error) {
	raw, ok := rec["downloadUrl"]
	if !ok {
		raw, ok = rec["url"]
	}
	if !ok {
		return "", errors.NewSourceShapeError(file, field+".downloadUrl", "missing download url")
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case []any:
		urls := make([]string, 0, len(v))
		for _, u := range v {
			if s, ok := u.(string); ok {
				urls = append(urls, s)
			}
		}
		if len(urls) == 0 {
			return "", errors.NewSourceShapeError(file, field+".downloadUrl", "empty download url list")
		}
		media, _ := rec["mediaType"].([]any)
		for i, u := range urls {
			if i >= len(media) {
				break
			}
			if mt, ok := media[i].(string); ok && strings.EqualFold(strings.TrimSpace(mt), "csv") {
				return u, nil
			}
		}
		return urls[0], nil
	}
	return "", errors.NewSourceShapeError(file, field+".downloadUrl", fmt.Sprintf("unexpected type %T", raw))
}

// ResourceName derives a resource name when the source gives none: the file
// stem when the URL ends in a single-dot file name, else a name built from
// the dataset identifier.
func ResourceName(url, id string, index, total int) string {
	segment := lastSegment(url)
	if strings.Count(segment, ".") == 1 {
		return segment[:strings.Index(segment, ".")]
	}
	if total > 1 {
		return stem(id) + "-file-" + strconv.Itoa(index)
	}
	return stem(id)
}

// stem keeps the first stemLength characters of id cut back before the last
// "-".
func stem(id string) string {
	if utf8.RuneCountInString(id) > stemLength {
		id = string([]rune(id)[:stemLength])
	}
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[:i]
	}
	return id
}

// Format returns the resource format for a download URL: the lower-cased
// extension of the last path segment, or "csv" whenever the segment mentions
// ".csv".
func Format(url string) string {
	segment := strings.ToLower(lastSegment(url))
	if strings.Contains(segment, ".csv") {
		return "csv"
	}
	return extension(segment)
}

// extension returns the text after the last dot, or s itself without a dot.
func extension(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func lastSegment(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
