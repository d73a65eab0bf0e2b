package content

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/Backblaze/blazer/b2"
	"github.com/adeneu/portfolio-web/config"
)

type B2Source struct {
	prefix  string
	bucket  *b2.Bucket
	b2cl    *b2.Client
	matcher *Matcher
}

func NewB2Source(ctx context.Context, cfg *config.B2Config, matcher *Matcher) (*B2Source, error) {
	b2cl, err := b2.NewClient(ctx, cfg.KeyID, cfg.ApplicationKey)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize b2 client: %w", err)
	}

	bucket, err := b2cl.Bucket(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("fail to open b2 bucket '%s': %w", cfg.BucketName, err)
	}

	return &B2Source{b2cl: b2cl, bucket: bucket, prefix: cfg.Prefix, matcher: matcher}, nil
}

func (s *B2Source) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0)

	iter := s.bucket.List(ctx, b2.ListPrefix(s.prefix))
	for iter.Next() {
		obj := iter.Object()
		if obj == nil {
			return nil, fmt.Errorf("failed to reference object in B2 bucket")
		}

		attrs, err := obj.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("get attributes for object: %w", err)
		}
		if attrs.Status != b2.Uploaded {
			continue
		}

		name := relative(s.prefix, obj.Name())
		if !s.matcher.Match(name) {
			continue
		}
		paths = append(paths, name)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterate over B2 objects: %w", err)
	}

	slices.Sort(paths)
	return paths, nil
}

func (s *B2Source) Read(ctx context.Context, path string) ([]byte, error) {
	reader := s.bucket.Object(s.prefix + path).NewReader(ctx)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return content, nil
}
