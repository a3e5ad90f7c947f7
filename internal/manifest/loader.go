// Package manifest loads capability-bundle manifests from disk. Each
// manifest declares one window category, its target pool size, and the
// capability bundles attached to windows of that category.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/types"
)

// Pattern matches manifest files under the manifest directory.
const Pattern = "**/*.manifest.yaml"

// Loader discovers and parses manifests under one directory.
type Loader struct {
	dir string
	log *logging.Logger
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.NewNop()
	}
	return &Loader{dir: dir, log: log}
}

// Load walks the manifest directory and parses every matching file.
// Malformed manifests are skipped with a warning; a missing directory
// yields no configs and no error. Results are ordered by category for
// deterministic registration.
func (l *Loader) Load() ([]types.HotCategoryConfig, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		l.log.Warn("manifest directory not found", zap.String("dir", l.dir))
		return nil, nil
	}

	var (
		mu      sync.Mutex
		configs []types.HotCategoryConfig
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(Pattern, filepath.ToSlash(rel))
		if err != nil || !ok {
			return err
		}

		cfg, perr := l.parse(p)
		if perr != nil {
			l.log.Warn("skipping malformed manifest",
				zap.String("path", p),
				zap.Error(perr),
			)
			return nil
		}

		mu.Lock()
		configs = append(configs, cfg)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest walk failed: %w", err)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Category < configs[j].Category
	})
	return configs, nil
}

func (l *Loader) parse(path string) (types.HotCategoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.HotCategoryConfig{}, err
	}
	var cfg types.HotCategoryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.HotCategoryConfig{}, err
	}
	if cfg.Category == "" {
		return types.HotCategoryConfig{}, fmt.Errorf("manifest %s: category is required", path)
	}
	return cfg, nil
}
