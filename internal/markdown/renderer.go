package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

const fence = "```"

var (
	fenceLangRe = regexp.MustCompile("^```(\\w+)?")
	headingRe   = regexp.MustCompile(`^#{1,6} `)
	tagGapRe    = regexp.MustCompile(`>\n+<`)
	hardWrapRe  = regexp.MustCompile(`<br ?/?>\n`)

	codeEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
)

type blockKind int

const (
	paragraphBlock blockKind = iota
	fenceBlock
	headingBlock
	listBlock
)

type Options struct {
	// Classes maps a tag ("h1".."h6", "p", "ul", "li", "a", ...) to a class
	// attribute added to every rendered node of that tag.
	Classes map[string]string
	// ExternalLinks adds target="_blank" and rel="noopener noreferrer" to
	// absolute http(s) links.
	ExternalLinks bool
}

// Renderer turns the markdown subset used by posts into HTML, one
// blank-line-separated block at a time.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer(opts Options) *Renderer {
	extensions := []goldmark.Extender{NewGalleryExtension()}
	if len(opts.Classes) > 0 {
		extensions = append(extensions, NewClassExtension(opts.Classes))
	}

	// Posts are authored by the site owner, raw HTML passes through.
	rendererOptions := []renderer.Option{html.WithHardWraps(), html.WithUnsafe()}
	if opts.ExternalLinks {
		rendererOptions = append(rendererOptions,
			renderer.WithNodeRenderers(util.Prioritized(NewExternalLinkRenderer(), 50)),
		)
	}

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extensions...),
			goldmark.WithRendererOptions(rendererOptions...),
		),
	}
}

func (r *Renderer) Render(src []byte) (string, error) {
	blocks := splitBlocks(string(src))
	out := make([]string, 0, len(blocks))

	for _, block := range blocks {
		var (
			rendered string
			err      error
		)
		switch classify(block) {
		case fenceBlock:
			rendered = renderFence(block)
		case listBlock:
			rendered, err = r.convert(listItems(block))
			rendered = tagGapRe.ReplaceAllString(rendered, "><")
		default:
			rendered, err = r.convert(block)
		}
		if err != nil {
			return "", fmt.Errorf("fail to render markdown block: %w", err)
		}
		if rendered != "" {
			out = append(out, rendered)
		}
	}

	return strings.Join(out, "\n\n"), nil
}

func (r *Renderer) convert(block string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(block), &buf); err != nil {
		return "", err
	}
	return hardWrapRe.ReplaceAllString(strings.TrimSpace(buf.String()), "<br>"), nil
}

// splitBlocks cuts src on blank lines. A fenced code block stays a single
// block even when it contains blank lines or is not surrounded by any.
func splitBlocks(src string) []string {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	blocks := make([]string, 0)
	current := make([]string, 0)
	inFence := false

	flush := func() {
		if block := strings.TrimSpace(strings.Join(current, "\n")); block != "" {
			blocks = append(blocks, block)
		}
		current = current[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, fence) && !inFence:
			flush()
			inFence = true
			current = append(current, trimmed)
		case strings.HasPrefix(trimmed, fence) && inFence:
			current = append(current, trimmed)
			inFence = false
			flush()
		case inFence:
			current = append(current, line)
		case trimmed == "":
			flush()
		default:
			current = append(current, line)
		}
	}
	flush()

	return blocks
}

func classify(block string) blockKind {
	switch {
	case strings.HasPrefix(block, fence):
		return fenceBlock
	case headingRe.MatchString(block):
		return headingBlock
	case strings.HasPrefix(block, "- ") || strings.Contains(block, "\n- "):
		return listBlock
	}
	return paragraphBlock
}

// listItems keeps only the "- " lines of a list block. Indented items are
// flattened into the same list.
func listItems(block string) string {
	items := make([]string, 0)
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "- ") {
			items = append(items, line)
		}
	}
	return strings.Join(items, "\n")
}

func renderFence(block string) string {
	lines := strings.Split(block, "\n")

	lang := "text"
	if m := fenceLangRe.FindStringSubmatch(lines[0]); m != nil && m[1] != "" {
		lang = m[1]
	}

	body := lines[1:]
	if len(body) > 0 && strings.HasPrefix(body[len(body)-1], fence) {
		body = body[:len(body)-1]
	}

	return `<pre><code class="language-` + lang + `">` + codeEscaper.Replace(strings.Join(body, "\n")) + "</code></pre>"
}
