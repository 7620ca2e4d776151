// Package manifest loads and writes dataset manifests.
package manifest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/split"
)

// Entry describes one dataset item.
type Entry struct {
	RelPath   string            `json:"relpath" yaml:"relpath"`
	Slug      string            `json:"slug" yaml:"slug"`
	Label     string            `json:"label" yaml:"label"`
	Partition split.Partition   `json:"partition,omitempty" yaml:"partition,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Manifest provides entries for a dataset.
type Manifest interface {
	Name() string
	Len(ctx context.Context) (int, error)
	Entries(ctx context.Context) (<-chan Entry, <-chan error)
}

// Slugify normalizes a filename into a stable identifier, keeping the audio
// extension so slugs of wav and flac renditions stay distinct.
func Slugify(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return slug.Make(base) + ext
}
