package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownToText renders markdown source as plain text by walking the
// parsed AST, keeping headings, paragraphs, list items, and code block
// contents while dropping formatting syntax and link targets.
func markdownToText(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.CodeBlock:
			writeLines(&b, src, v)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			writeLines(&b, src, v)
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			b.Write(v.URL(src))
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

func writeLines(b *strings.Builder, src []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
}
