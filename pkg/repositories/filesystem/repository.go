// Package filesystem reads plan documents from and writes narratives to a
// directory tree.
package filesystem

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/repositories"
)

const (
	// DefaultPattern matches EXPLAIN (FORMAT JSON) dumps.
	DefaultPattern = "*.json"
	// NarrativeExt replaces the document extension on output files.
	NarrativeExt = ".txt"
)

// Config locates documents and narratives.
type Config struct {
	InputDir  string
	OutputDir string // defaults to InputDir
	Pattern   string // defaults to DefaultPattern
}

// Repository is a PlanSource and NarrativeSink backed by an afero filesystem.
type Repository struct {
	fs     afero.Fs
	cfg    Config
	logger zerolog.Logger
}

var (
	_ repositories.PlanSource    = (*Repository)(nil)
	_ repositories.NarrativeSink = (*Repository)(nil)
)

// New creates a repository on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, cfg Config, logger zerolog.Logger) *Repository {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	return &Repository{fs: fs, cfg: cfg, logger: logger}
}

// List returns the paths of documents matching the pattern, sorted.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	if _, err := filepath.Match(r.cfg.Pattern, ""); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidRequest, "invalid pattern %q", r.cfg.Pattern)
	}
	matches, err := afero.Glob(r.fs, filepath.Join(r.cfg.InputDir, r.cfg.Pattern))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeSourceFailed, "failed to list %s", r.cfg.InputDir)
	}

	files := matches[:0]
	for _, m := range matches {
		info, err := r.fs.Stat(m)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeSourceFailed, "failed to stat %s", m)
		}
		if !info.IsDir() {
			files = append(files, m)
		}
	}
	sort.Strings(files)

	r.logger.Debug().
		Str("input_dir", r.cfg.InputDir).
		Str("pattern", r.cfg.Pattern).
		Int("documents", len(files)).
		Msg("Listed plan documents")
	return files, nil
}

// Read returns the contents of the document at path.
func (r *Repository) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeSourceFailed, "failed to read %s", path)
	}
	return data, nil
}

// Write stores narrative next to the source document name, with the
// extension swapped for NarrativeExt, under OutputDir.
func (r *Repository) Write(ctx context.Context, name string, narrative string) (string, error) {
	out := r.OutputPath(name)
	if err := r.fs.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", errors.Wrapf(err, errors.CodeSinkFailed, "failed to create %s", filepath.Dir(out))
	}
	if err := afero.WriteFile(r.fs, out, []byte(narrative), 0o644); err != nil {
		return "", errors.Wrapf(err, errors.CodeSinkFailed, "failed to write %s", out)
	}

	r.logger.Debug().Str("source", name).Str("output", out).Msg("Wrote narrative")
	return out, nil
}

// OutputPath maps a document path to its narrative path.
func (r *Repository) OutputPath(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + NarrativeExt
	return filepath.Join(r.cfg.OutputDir, base)
}
