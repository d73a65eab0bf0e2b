package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	galleryOpen  = []byte("{Gallery}")
	galleryClose = []byte("{/Gallery}")
)

// GalleryBlock is a run of images written as
//
//	{Gallery}
//	/imgs/one.png | optional *caption*
//	{/Gallery}
type GalleryBlock struct {
	ast.BaseBlock
	Images []GalleryImage
}

type GalleryImage struct {
	URL     string
	Caption []byte
}

var KindGalleryBlock = ast.NewNodeKind("GalleryBlock")

func (n *GalleryBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

func (n *GalleryBlock) Kind() ast.NodeKind {
	return KindGalleryBlock
}

type galleryParser struct{}

func (p *galleryParser) Trigger() []byte {
	return []byte{'{'}
}

func (p *galleryParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	if !bytes.Equal(bytes.TrimSpace(line), galleryOpen) {
		return nil, parser.NoChildren
	}
	return &GalleryBlock{}, parser.NoChildren
}

func (p *galleryParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}

	trimmed := bytes.TrimSpace(line)
	if bytes.Equal(trimmed, galleryClose) {
		return parser.Close
	}
	if len(trimmed) == 0 || segment.Len() == 0 {
		return parser.Continue | parser.NoChildren
	}

	url, caption, _ := bytes.Cut(trimmed, []byte{'|'})
	gallery := node.(*GalleryBlock)
	gallery.Images = append(gallery.Images, GalleryImage{
		URL:     string(bytes.TrimSpace(url)),
		Caption: bytes.TrimSpace(caption),
	})

	return parser.Continue | parser.NoChildren
}

func (p *galleryParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *galleryParser) CanInterruptParagraph() bool {
	return true
}

func (p *galleryParser) CanAcceptIndentedLine() bool {
	return false
}

type galleryRenderer struct {
	captions goldmark.Markdown
}

func (r *galleryRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindGalleryBlock, r.renderGallery)
}

func (r *galleryRenderer) renderGallery(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	gallery := n.(*GalleryBlock)
	if !entering || len(gallery.Images) == 0 {
		return ast.WalkSkipChildren, nil
	}

	_, _ = w.WriteString(`<div class="gallery">`)
	for _, img := range gallery.Images {
		url := util.EscapeHTML([]byte(img.URL))

		_, _ = w.WriteString(`<figure class="gallery-item"><a href="`)
		_, _ = w.Write(url)
		_, _ = w.WriteString(`" data-gallery="gallery"><img src="`)
		_, _ = w.Write(url)
		_, _ = w.WriteString(`" alt="`)
		_, _ = w.Write(util.EscapeHTML(img.Caption))
		_, _ = w.WriteString(`" loading="lazy" /></a>`)

		if len(img.Caption) > 0 {
			var caption bytes.Buffer
			if err := r.captions.Convert(img.Caption, &caption); err != nil {
				return ast.WalkStop, err
			}
			inline := bytes.TrimSpace(caption.Bytes())
			inline = bytes.TrimSuffix(bytes.TrimPrefix(inline, []byte("<p>")), []byte("</p>"))

			_, _ = w.WriteString("<figcaption>")
			_, _ = w.Write(inline)
			_, _ = w.WriteString("</figcaption>")
		}
		_, _ = w.WriteString("</figure>")
	}
	_, _ = w.WriteString("</div>\n")

	return ast.WalkSkipChildren, nil
}

type galleryExtension struct{}

// NewGalleryExtension renders {Gallery} blocks as a grid of linked figures.
func NewGalleryExtension() goldmark.Extender {
	return &galleryExtension{}
}

func (e *galleryExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&galleryParser{}, 500),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&galleryRenderer{captions: goldmark.New()}, 500),
		),
	)
}
