// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libgrab/internal/retrieve"
	"github.com/pdiddy/libgrab/pkg/types"
)

const metadataDir = "metadata"

// writeRecord writes the download record as YAML to
// outputDir/metadata/<candidate-id>.yaml.
func writeRecord(rec types.DownloadRecord, outputDir string) error {
	dir := filepath.Join(outputDir, metadataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	path := filepath.Join(dir, retrieve.Sanitize(rec.ID)+".yaml")
	return os.WriteFile(path, data, 0o644)
}
