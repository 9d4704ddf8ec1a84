// Package rag wraps the Weaviate vector store behind a best-effort retrieval
// index. Search never fails: an unreachable store, a GraphQL error, or a
// malformed payload all yield an empty result set, because retrieval is a
// grounding hint for the pipeline, not a required input.
package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"gamewright/internal/config"
	"gamewright/internal/logger"
)

// ClassName is the single Weaviate class holding all exemplars.
const ClassName = "GameKnowledge"

// Exemplar categories.
const (
	CategoryTaskPlans     = "task_plans"
	CategoryCodeTemplates = "code_templates"
	CategoryErrorPatterns = "error_patterns"
)

// Document is one immutable retrieval record.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Type     string   `json:"type"`
}

// Result is one ranked search hit. Similarity is 1 - cosine distance.
type Result struct {
	Text       string
	Metadata   map[string]string
	Similarity float64
}

// Searcher is the read side consumed by the planner, coder, and fixer.
type Searcher interface {
	Search(ctx context.Context, query, category string, topK int) []Result
}

// Index is the Weaviate-backed Searcher.
type Index struct {
	client *weaviate.Client
}

func New(cfg config.Config) (*Index, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Scheme: cfg.WeaviateScheme,
		Host:   cfg.WeaviateHost,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &Index{client: client}, nil
}

// EnsureSchema creates the GameKnowledge class when it does not exist yet.
// Idempotent.
func (ix *Index) EnsureSchema(ctx context.Context) error {
	_, err := ix.client.Schema().ClassGetter().WithClassName(ClassName).Do(ctx)
	if err == nil {
		return nil
	}

	class := &models.Class{
		Class:       ClassName,
		Description: "Plans, code templates and error patterns for game synthesis",
		Vectorizer:  "text2vec-transformers",
		ModuleConfig: map[string]interface{}{
			"text2vec-transformers": map[string]interface{}{
				"vectorizeClassName": false,
			},
		},
		Properties: []*models.Property{
			textProperty("text", "Exemplar body", false),
			textProperty("category", "Exemplar category", true),
			textProperty("tags", "Comma separated tags", true),
			textProperty("docId", "Source document id", true),
			textProperty("docType", "Exemplar type", true),
		},
	}
	if err := ix.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("creating %s schema: %w", ClassName, err)
	}
	logger.Log.Printf("[rag] created %s schema", ClassName)
	return nil
}

func textProperty(name, description string, skipVectorize bool) *models.Property {
	p := &models.Property{
		Name:        name,
		DataType:    []string{"text"},
		Description: description,
	}
	if skipVectorize {
		p.ModuleConfig = map[string]interface{}{
			"text2vec-transformers": map[string]interface{}{"skip": true},
		}
	}
	return p
}

// Add inserts one record. Idempotent per (category, id): the Weaviate object
// UUID is derived from that pair, so re-adding the same id overwrites.
func (ix *Index) Add(ctx context.Context, doc Document) error {
	if doc.Text == "" {
		return fmt.Errorf("document text must not be empty")
	}

	objectID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.Category+"_"+doc.ID)).String()
	props := map[string]interface{}{
		"text":     doc.Text,
		"category": doc.Category,
		"tags":     strings.Join(doc.Tags, ","),
		"docId":    doc.ID,
		"docType":  doc.Type,
	}

	_, err := ix.client.Data().Creator().
		WithClassName(ClassName).
		WithID(objectID).
		WithProperties(props).
		Do(ctx)
	if err == nil {
		return nil
	}

	// Same id already stored: replace it.
	if uerr := ix.client.Data().Updater().
		WithClassName(ClassName).
		WithID(objectID).
		WithProperties(props).
		Do(ctx); uerr != nil {
		return fmt.Errorf("adding document %s_%s: %w", doc.Category, doc.ID, uerr)
	}
	return nil
}

// Search returns up to topK records nearest to query, restricted to category
// when non-empty, ordered by descending similarity. It never returns an
// error; failures are logged and produce an empty slice.
func (ix *Index) Search(ctx context.Context, query, category string, topK int) []Result {
	if topK <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "category"},
		{Name: "tags"},
		{Name: "docId"},
		{Name: "docType"},
		{Name: "_additional { certainty distance }"},
	}

	nearText := ix.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	q := ix.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(topK)

	if category != "" {
		q = q.WithWhere(filters.Where().
			WithPath([]string{"category"}).
			WithOperator(filters.Equal).
			WithValueString(category))
	}

	resp, err := q.Do(ctx)
	if err != nil {
		logger.Log.Printf("[rag] search failed: %v", err)
		return nil
	}
	if len(resp.Errors) > 0 {
		logger.Log.Printf("[rag] search error: %s", resp.Errors[0].Message)
		return nil
	}

	results := parseResults(resp)
	logger.Log.Printf("[rag] search %q category=%q -> %d hits", truncate(query, 50), category, len(results))
	return results
}

// parseResults extracts ranked hits from a GraphQL Get response, preserving
// Weaviate's distance ordering (stable for ties).
func parseResults(resp *models.GraphQLResponse) []Result {
	data, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[ClassName].([]interface{})
	if !ok {
		return nil
	}

	results := make([]Result, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		r := Result{
			Text: getString(m, "text"),
			Metadata: map[string]string{
				"category": getString(m, "category"),
				"tags":     getString(m, "tags"),
				"id":       getString(m, "docId"),
				"type":     getString(m, "docType"),
			},
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				r.Similarity = 1 - distance
			} else if certainty, ok := additional["certainty"].(float64); ok {
				r.Similarity = certainty
			}
		}
		results = append(results, r)
	}
	return results
}

// Info reports the number of stored documents; zero when unreachable.
func (ix *Index) Info(ctx context.Context) int {
	meta := graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}
	resp, err := ix.client.GraphQL().Aggregate().
		WithClassName(ClassName).
		WithFields(meta).
		Do(ctx)
	if err != nil || len(resp.Errors) > 0 {
		return 0
	}
	return parseAggregateCount(resp)
}

func parseAggregateCount(resp *models.GraphQLResponse) int {
	agg, ok := resp.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	objects, ok := agg[ClassName].([]interface{})
	if !ok || len(objects) == 0 {
		return 0
	}
	m, ok := objects[0].(map[string]interface{})
	if !ok {
		return 0
	}
	metaMap, ok := m["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, _ := metaMap["count"].(float64)
	return int(count)
}

func getString(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
