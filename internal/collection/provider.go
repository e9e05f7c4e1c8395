// file: internal/collection/provider.go
// version: 1.0.0
// guid: 4f1c9a2e-7d3b-4e8a-b6c5-0a9f2d1e8b73

package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdfalk/listings-engine/internal/models"
	"gopkg.in/yaml.v3"
)

// Snapshot is a fully paginated, flattened copy of the directory
// collections as returned by a Provider.
type Snapshot struct {
	Listings   []models.Listing  `json:"listings" yaml:"listings"`
	Categories []models.Category `json:"categories" yaml:"categories"`
}

// Provider fetches the listing and category collections. Implementations
// handle paging and transport; the repository only sees the flattened result.
type Provider interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (*Snapshot, error)

// Fetch calls f(ctx).
func (f ProviderFunc) Fetch(ctx context.Context) (*Snapshot, error) { return f(ctx) }

// FileProvider reads a snapshot from a local JSON or YAML file. The format
// is chosen by extension: .yaml and .yml decode as YAML, anything else as JSON.
type FileProvider struct {
	Path string
}

// NewFileProvider creates a provider for the snapshot at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// Fetch reads and decodes the snapshot file.
func (p *FileProvider) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, fmt.Errorf("collection path not configured")
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var snap Snapshot
	switch strings.ToLower(filepath.Ext(p.Path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to parse YAML collection %s: %w", p.Path, err)
		}
	default:
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to parse JSON collection %s: %w", p.Path, err)
		}
	}
	return &snap, nil
}
