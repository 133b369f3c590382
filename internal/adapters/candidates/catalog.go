package candidates

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/okian/eraquiz/internal/domain/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Figures []model.Candidate `yaml:"figures"`
}

// CatalogSource reads candidates from a YAML catalog. The file is re-read on
// every call so edits show up on the next pool refresh.
type CatalogSource struct {
	path string
}

// NewCatalogSource returns a source for the catalog at path, or for the
// built-in catalog when path is empty.
func NewCatalogSource(path string) *CatalogSource {
	return &CatalogSource{path: path}
}

// Candidates implements Source.
func (c *CatalogSource) Candidates(ctx context.Context) ([]model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := defaultCatalog
	if c.path != "" {
		b, err := os.ReadFile(c.path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", c.path, ErrSourceUnavailable)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) ([]model.Candidate, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadCatalog, err)
	}
	return f.Figures, nil
}
