package blog

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/adeneu/portfolio-web/internal/frontmatter"
)

const (
	wordsPerMinute       = 200
	DefaultExcerptLength = 160
)

// MarkdownRenderer converts a markdown body to HTML.
type MarkdownRenderer interface {
	Render(src []byte) (string, error)
}

var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedRe   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	imageRe      = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

type Processed struct {
	Metadata Metadata
	Content  string
	Excerpt  string
}

type Processor struct {
	renderer      MarkdownRenderer
	metadataOnly  bool
	excerptLength int
	logger        *slog.Logger
}

type ProcessorOption func(*Processor)

// WithMetadataOnly skips HTML rendering; Content keeps the markdown body.
func WithMetadataOnly() ProcessorOption {
	return func(p *Processor) { p.metadataOnly = true }
}

func WithExcerptLength(length int) ProcessorOption {
	return func(p *Processor) { p.excerptLength = length }
}

func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

func NewProcessor(renderer MarkdownRenderer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		renderer:      renderer,
		excerptLength: DefaultExcerptLength,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process parses one document. fallbackSlug is used when the frontmatter
// has no slug.
func (p *Processor) Process(content []byte, fallbackSlug string) (*Processed, error) {
	fm, body, err := frontmatter.ParseFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}

	slug := fm.Slug
	if slug.IsZero() {
		slug = frontmatter.PlainSlug(fallbackSlug)
	}

	markdown := string(body)
	processed := &Processed{
		Metadata: Metadata{
			Title:         fm.Title,
			Description:   fm.Description,
			Date:          fm.Date,
			Published:     fm.Published,
			Categories:    fm.Categories,
			Author:        fm.Author,
			CoverImage:    fm.CoverImage,
			CoverImageAlt: fm.CoverImageAlt,
			ReadingTime:   ReadingTime(markdown),
			Slug:          slug,
		},
		Content: markdown,
		Excerpt: Excerpt(markdown, p.excerptLength),
	}

	if p.metadataOnly || p.renderer == nil {
		return processed, nil
	}

	rendered, err := p.renderer.Render(body)
	if err != nil {
		p.logger.Warn("failed to render markdown, serving raw body",
			slog.String("title", fm.Title),
			slog.String("error", err.Error()),
		)
		return processed, nil
	}
	processed.Content = rendered

	return processed, nil
}

// ReadingTime estimates minutes to read a markdown body at 200 words per
// minute, ignoring fenced code. It never returns less than 1.
func ReadingTime(markdown string) int {
	text := fencedCodeRe.ReplaceAllString(markdown, "")
	words := len(strings.Fields(text))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

// Excerpt strips markdown syntax, code and list markers, then cuts the text
// at the last space before length characters, appending "...".
func Excerpt(markdown string, length int) string {
	text := fencedCodeRe.ReplaceAllString(markdown, "")
	text = inlineCodeRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = numberedRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = imageRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) <= length {
		return text
	}

	truncated := string(runes[:length])
	cut := strings.LastIndex(truncated, " ")
	if cut < 0 {
		cut = 0
	}
	return truncated[:cut] + "..."
}
