package tables

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
)

// ReadMasterRecords reads the dataset master list in file order.
func ReadMasterRecords(path string) ([]catalogs.MasterRecord, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(t.Header, "id") {
		return nil, errors.NewParseError("csv", path, "missing id column", nil)
	}
	records := make([]catalogs.MasterRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, catalogs.MasterRecord{
			ID:              strings.TrimSpace(row["id"]),
			OK:              strings.TrimSpace(row["ok"]),
			Groups:          row["groups"],
			GroupsExtra:     row["groups_extra"],
			Vocabulary:      row["vocabulary"],
			VocabularyExtra: row["vocabulary_extra"],
			Tags:            row["tags"],
			Organization:    strings.TrimSpace(row["organization"]),
		})
	}
	return records, nil
}

// ReadMasterList reads the dataset master list keyed by dataset name. A
// repeated id keeps its last row.
func ReadMasterList(path string) (map[string]catalogs.MasterRecord, error) {
	records, err := ReadMasterRecords(path)
	if err != nil {
		return nil, err
	}
	master := make(map[string]catalogs.MasterRecord, len(records))
	for _, r := range records {
		if r.ID != "" {
			master[r.ID] = r
		}
	}
	return master, nil
}

// Group is one row of the group list.
type Group struct {
	Name  string
	Title catalogs.Text
}

// ReadGroups reads the group list.
func ReadGroups(path string) ([]Group, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(t.Rows))
	for _, row := range t.Rows {
		groups = append(groups, Group{
			Name:  strings.TrimSpace(row["name"]),
			Title: Fold(row, "title"),
		})
	}
	return groups, nil
}

type organizationsFile struct {
	Organizations []*catalogs.Organization `json:"organizations"`
}

// ReadOrganizations reads the organizations file, a JSON or YAML document
// of the form {"organizations": [...]}.
func ReadOrganizations(path string) (map[string]*catalogs.Organization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return ParseOrganizations(path, data)
}

// ParseOrganizations decodes an organizations document. The format follows
// the extension of name.
func ParseOrganizations(name string, data []byte) (map[string]*catalogs.Organization, error) {
	format := "json"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		format = "yaml"
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, errors.WrapParse(format, name, err)
		}
		data = converted
	}

	var file organizationsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse(format, name, err)
	}

	orgs := make(map[string]*catalogs.Organization, len(file.Organizations))
	for _, org := range file.Organizations {
		if org == nil {
			continue
		}
		if err := org.Validate(); err != nil {
			return nil, errors.WrapValidation("organizations", err)
		}
		if typ, err := catalogs.ParseSourceType(string(org.Type)); err == nil {
			org.Type = typ
		}
		orgs[org.Name] = org
	}
	return orgs, nil
}
