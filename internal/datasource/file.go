package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// FileSource serves asset snapshots from JSON files on disk, one file per
// category named "<category>-assets.json" inside Dir. A single Path, when
// set, is used for every category instead.
type FileSource struct {
	Dir  string
	Path string
}

// Name returns the source name.
func (f FileSource) Name() string { return "file" }

// ListAssets reads and decodes the category's file.
func (f FileSource) ListAssets(ctx context.Context, category models.Category) ([]models.AssetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := f.Path
	if path == "" {
		key, err := categoryKey(category)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(f.Dir, key+"-assets.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	records, err := DecodeAssets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
