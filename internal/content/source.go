package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/adeneu/portfolio-web/config"
	"github.com/gobwas/glob"
)

const DefaultPattern = "**.md"

// Source lists and reads content documents. Paths are slash separated and
// relative to the source root.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// Matcher filters document paths with a glob where "*" stays within a path
// segment and "**" crosses segments.
type Matcher struct {
	g glob.Glob
}

func NewMatcher(pattern string) (*Matcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("fail to compile content pattern '%s': %w", pattern, err)
	}
	return &Matcher{g: g}, nil
}

func (m *Matcher) Match(name string) bool {
	return m.g.Match(name)
}

// NewSource builds the source described by the storage config.
func NewSource(ctx context.Context, cfg *config.ContentConfig) (Source, error) {
	matcher, err := NewMatcher(cfg.Pattern)
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.Type {
	case "fs":
		return NewFSSource(os.DirFS(cfg.Storage.FS.Root), matcher), nil
	case "b2":
		return NewB2Source(ctx, cfg.Storage.B2, matcher)
	case "s3":
		return NewS3Source(ctx, cfg.Storage.S3, matcher)
	}
	return nil, fmt.Errorf("unknown content storage type '%s'", cfg.Storage.Type)
}

type FSSource struct {
	fsys    fs.FS
	matcher *Matcher
}

func NewFSSource(fsys fs.FS, matcher *Matcher) *FSSource {
	return &FSSource{fsys: fsys, matcher: matcher}
}

func (s *FSSource) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0)
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !s.matcher.Match(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fail to walk content directory: %w", err)
	}
	return paths, nil
}

func (s *FSSource) Read(_ context.Context, p string) ([]byte, error) {
	content, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("fail to read '%s': %w", p, err)
	}
	return content, nil
}

// relative strips a storage prefix from an object key.
func relative(prefix, key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
}

