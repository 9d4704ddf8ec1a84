package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gamewright/internal/logger"
)

// seedFiles maps each category to its corpus file under the seed directory.
var seedFiles = map[string]string{
	CategoryTaskPlans:     "task_plans.json",
	CategoryCodeTemplates: "code_templates.json",
	CategoryErrorPatterns: "error_patterns.json",
}

type seedEntry struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Metadata struct {
		Tags []string `json:"tags"`
		Type string   `json:"type"`
	} `json:"metadata"`
}

// Seed loads the per-category JSON corpus files into the index. Missing files
// are skipped; Add is idempotent, so reseeding on every start is safe.
func (ix *Index) Seed(ctx context.Context, dir string) error {
	for category, name := range seedFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Log.Printf("[rag] seed file not found: %s", path)
				continue
			}
			return fmt.Errorf("reading seed file %s: %w", path, err)
		}

		var entries []seedEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing seed file %s: %w", path, err)
		}

		added := 0
		for _, e := range entries {
			doc := Document{
				ID:       e.ID,
				Text:     e.Text,
				Category: category,
				Tags:     e.Metadata.Tags,
				Type:     e.Metadata.Type,
			}
			if err := ix.Add(ctx, doc); err != nil {
				logger.Log.Printf("[rag] seeding %s/%s failed: %v", category, e.ID, err)
				continue
			}
			added++
		}
		logger.Log.Printf("[rag] seeded %d documents from %s", added, name)
	}
	return nil
}
