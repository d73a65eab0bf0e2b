package markdown

import (
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Class keys understood by ClassTransformer. Headings use "h1" through "h6".
const (
	ClassParagraph   = "p"
	ClassList        = "ul"
	ClassListItem    = "li"
	ClassBlockquote  = "blockquote"
	ClassCodeSpan    = "code"
	ClassLink        = "a"
	ClassImage       = "img"
	ClassEmphasis    = "em"
	ClassStrong      = "strong"
	ClassOrderedList = "ol"
)

type ClassExtension struct {
	classes map[string]string
}

func NewClassExtension(classes map[string]string) goldmark.Extender {
	return &ClassExtension{classes: classes}
}

func (e *ClassExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&ClassTransformer{classes: e.classes}, 500),
		),
	)
}

// ClassTransformer sets a class attribute on every node whose tag has a
// configured class.
type ClassTransformer struct {
	classes map[string]string
}

func (t *ClassTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		key := ""
		switch node := n.(type) {
		case *ast.Heading:
			key = "h" + strconv.Itoa(node.Level)
		case *ast.Paragraph:
			key = ClassParagraph
		case *ast.List:
			key = ClassList
			if node.IsOrdered() {
				key = ClassOrderedList
			}
		case *ast.ListItem:
			key = ClassListItem
		case *ast.Blockquote:
			key = ClassBlockquote
		case *ast.CodeSpan:
			key = ClassCodeSpan
		case *ast.Link:
			key = ClassLink
		case *ast.Image:
			key = ClassImage
		case *ast.Emphasis:
			key = ClassEmphasis
			if node.Level == 2 {
				key = ClassStrong
			}
		}

		if class, ok := t.classes[key]; ok && class != "" {
			n.SetAttribute([]byte("class"), []byte(class))
		}
		return ast.WalkContinue, nil
	})
}
