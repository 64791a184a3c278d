// Package semantic attaches controlled vocabulary to datasets: catalog
// groups, schema.org vocabulary tags and free tags, each translated through
// curated tables keyed by Spanish label.
package semantic

import (
	"context"
	"slices"
	"strings"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
)

// Labels are the semantic columns of a dataset's master record.
type Labels struct {
	Groups          string
	GroupsExtra     string
	Vocabulary      string
	VocabularyExtra string
	Tags            string
}

// Enricher fills the semantic fields of datasets.
type Enricher struct {
	vocabulary *Table
	tags       *Table
}

// NewEnricher returns an Enricher using the given vocabulary and free tag
// tables.
func NewEnricher(vocabulary, tags *Table) *Enricher {
	return &Enricher{vocabulary: vocabulary, tags: tags}
}

// Enrich sets groups, tag_string_schemaorg and tag_string on ds. A
// vocabulary label missing from the vocabulary table fails with a
// *errors.VocabularyError and leaves ds unchanged. Free tags never fail:
// unknown ones fall back to their Spanish form.
func (e *Enricher) Enrich(ctx context.Context, ds *catalogs.Dataset, labels Labels) error {
	logger := logging.FromContext(ctx)

	schemaOrg, err := e.vocabularyTokens(ctx, ds.Name, labels)
	if err != nil {
		return err
	}

	if groups := Groups(labels.Groups, labels.GroupsExtra); len(groups) > 0 {
		ds.Groups = make([]catalogs.Group, 0, len(groups))
		for _, g := range groups {
			ds.Groups = append(ds.Groups, catalogs.Group{Name: g})
		}
		logger.Debug().Strs("groups", groups).Msg("Adding groups")
	}

	if len(schemaOrg) > 0 {
		ds.TagStringSchemaOrg = strings.Join(schemaOrg, ",")
		logger.Debug().Str("tags", ds.TagStringSchemaOrg).Msg("Adding vocabulary tags")
	}

	if tags := e.freeTags(ctx, labels.Tags); len(tags) > 0 {
		ds.TagString = strings.Join(tags, ",")
		logger.Debug().Str("tags", ds.TagString).Msg("Adding free tags")
	}
	return nil
}

// Groups returns the sorted, de-duplicated group names of the merged lists.
// Names shorter than two characters once trimmed are dropped.
func Groups(lists ...string) []string {
	var groups []string
	for _, label := range SplitLabels(lists...) {
		g := strings.ToLower(strings.TrimSpace(label))
		if len(g) > 1 && !slices.Contains(groups, g) {
			groups = append(groups, g)
		}
	}
	slices.Sort(groups)
	return groups
}

func (e *Enricher) vocabularyTokens(ctx context.Context, dataset string, labels Labels) ([]string, error) {
	var tokens, missing []string
	for _, label := range SplitLabels(labels.Vocabulary, labels.VocabularyExtra) {
		key := Normalize(label)
		found, ok := e.vocabulary.Lookup(ctx, key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		tokens = append(tokens, found...)
	}
	if len(missing) > 0 {
		return nil, &errors.VocabularyError{Table: e.vocabulary.Name(), Dataset: dataset, Labels: missing}
	}
	return tokens, nil
}

func (e *Enricher) freeTags(ctx context.Context, tags string) []string {
	var tokens []string
	for _, label := range SplitLabels(tags) {
		key := Normalize(label)
		if found, ok := e.tags.LookupWithReload(ctx, key); ok {
			tokens = append(tokens, found...)
			continue
		}
		tokens = append(tokens, key+"-"+catalogs.LangES.String())
		logging.FromContext(ctx).Error().Str("tag", key).Str("table", e.tags.Name()).Msg("missing tag")
	}
	return tokens
}
