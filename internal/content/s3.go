package content

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/adeneu/portfolio-web/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source reads documents from any S3 compatible bucket. A custom endpoint
// switches the client to path-style addressing.
type S3Source struct {
	client  *s3.Client
	bucket  string
	prefix  string
	matcher *Matcher
}

func NewS3Source(ctx context.Context, cfg *config.S3Config, matcher *Matcher) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("fail to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Source{client: client, bucket: cfg.BucketName, prefix: cfg.Prefix, matcher: matcher}, nil
}

func (s *S3Source) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fail to list s3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := relative(s.prefix, aws.ToString(obj.Key))
			if s.matcher.Match(name) {
				paths = append(paths, name)
			}
		}
	}

	slices.Sort(paths)
	return paths, nil
}

func (s *S3Source) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + path),
	})
	if err != nil {
		return nil, fmt.Errorf("fail to get s3 object '%s': %w", path, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return content, nil
}
