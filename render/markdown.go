package render

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"chatinput/config"
)

const minWidth = 20

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
	literalTagRegex = regexp.MustCompile(`(?i)^</?think>$`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// Renderer renders message content to ANSI text for a fixed width.
type Renderer struct {
	width int
}

func NewRenderer(width int) *Renderer {
	if width < minWidth {
		width = minWidth
	}
	return &Renderer{width: width}
}

func (r *Renderer) Width() int {
	return r.width
}

// RenderPlain renders content as Markdown without any pattern handlers.
func (r *Renderer) RenderPlain(content string) string {
	return r.Render(content, nil)
}

// Render renders content as Markdown, substituting handler matches.
//
// Block handlers split the raw content first. Their output is emitted as is
// and the text between matches goes through Markdown. Inline handlers are
// applied to paragraph text only, so headings, links, tables and code keep
// their literal content.
func (r *Renderer) Render(content string, handlers []PatternHandler) string {
	start := time.Now()

	var block, inline []PatternHandler
	for _, h := range handlers {
		if h.Block {
			block = append(block, h)
		} else {
			inline = append(inline, h)
		}
	}

	var out string
	if len(block) == 0 {
		out = r.renderMarkdown(content, inline)
	} else {
		var b strings.Builder
		for _, seg := range Segments(content, block) {
			if seg.Kind == SegmentMatch {
				b.WriteString(seg.Text)
				continue
			}
			if strings.TrimSpace(seg.Text) == "" {
				continue
			}
			b.WriteString(r.renderMarkdown(seg.Text, inline))
		}
		out = b.String()
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Render] %d chars, %d handlers, rendered in %v", len(content), len(handlers), time.Since(start))
	}
	return out
}

func (r *Renderer) renderMarkdown(content string, inline []PatternHandler) string {
	content = protectEscapedBrackets(content)

	// Autolink stays off so URLs remain plain text for the terminal to detect
	p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
	doc := p.Parse([]byte(content))

	flattenLinks(doc)
	normalizeText(doc)
	if len(inline) > 0 {
		applyInline(doc, inline)
	}
	restoreEscapedBrackets(doc)

	rendered := gomarkdown.Render(doc, &codeMarker{inner: markdown.NewRenderer(r.width-4, 0)})
	return postProcess(string(rendered), r.width)
}

// Escaped brackets are swapped for private-use runes before parsing, so an
// escaped \[1\] never reaches the inline handlers as a citation.
const (
	escapedOpen  = '\uE000'
	escapedClose = '\uE001'
)

func protectEscapedBrackets(content string) string {
	if !strings.Contains(content, `\`) {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	for i := 0; i < len(content); i++ {
		c := content[i]
		if c != '\\' || i+1 >= len(content) {
			b.WriteByte(c)
			continue
		}
		switch content[i+1] {
		case '[':
			b.WriteRune(escapedOpen)
		case ']':
			b.WriteRune(escapedClose)
		default:
			// keeps \\[ as an escaped backslash followed by a real bracket
			b.WriteByte(c)
			b.WriteByte(content[i+1])
		}
		i++
	}
	return b.String()
}

// restoreEscapedBrackets puts the brackets back: bare in text, where the
// parser already consumed the escape, and with the backslash in code.
func restoreEscapedBrackets(doc ast.Node) {
	text := strings.NewReplacer(string(escapedOpen), "[", string(escapedClose), "]")
	raw := strings.NewReplacer(string(escapedOpen), `\[`, string(escapedClose), `\]`)

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Text:
			n.Literal = replaceLiteral(text, n.Literal)
		case *ast.Link:
			n.Destination = replaceLiteral(raw, n.Destination)
		default:
			if leaf := node.AsLeaf(); leaf != nil {
				leaf.Literal = replaceLiteral(raw, leaf.Literal)
			}
		}
		return ast.GoToNext
	})
}

func replaceLiteral(r *strings.Replacer, literal []byte) []byte {
	if !bytes.ContainsRune(literal, escapedOpen) && !bytes.ContainsRune(literal, escapedClose) {
		return literal
	}
	return []byte(r.Replace(string(literal)))
}

// flattenLinks shows [text](url) links as their plain URL, which postProcess
// colours. Only http(s) links are rewritten; code never holds link nodes.
func flattenLinks(doc ast.Node) {
	var links []*ast.Link
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if link, ok := node.(*ast.Link); ok && entering {
			dest := string(link.Destination)
			if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
				links = append(links, link)
			}
			return ast.SkipChildren
		}
		return ast.GoToNext
	})

	for _, link := range links {
		parent := link.GetParent()
		if parent == nil {
			continue
		}
		text := &ast.Text{}
		text.Literal = append([]byte(nil), link.Destination...)
		text.SetParent(parent)

		children := parent.GetChildren()
		for i, child := range children {
			if child == ast.Node(link) {
				children[i] = text
				break
			}
		}
		parent.SetChildren(children)
	}
}

// normalizeText turns stray <think> tags back into text and merges adjacent
// text nodes, so escapes and entities do not split a match in two.
func normalizeText(doc ast.Node) {
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering || node.AsContainer() == nil {
			return ast.GoToNext
		}
		if _, ok := node.(*ast.Table); ok {
			return ast.SkipChildren
		}

		children := node.GetChildren()
		if len(children) == 0 {
			return ast.GoToNext
		}

		merged := make([]ast.Node, 0, len(children))
		for _, child := range children {
			if span, ok := child.(*ast.HTMLSpan); ok && literalTagRegex.Match(span.Literal) {
				text := &ast.Text{}
				text.Literal = append([]byte(nil), span.Literal...)
				text.SetParent(node)
				child = text
			}

			if text, ok := child.(*ast.Text); ok && len(merged) > 0 {
				if prev, ok := merged[len(merged)-1].(*ast.Text); ok {
					// Literal slices share the source buffer, never append in place
					joined := make([]byte, 0, len(prev.Literal)+len(text.Literal))
					joined = append(joined, prev.Literal...)
					joined = append(joined, text.Literal...)
					prev.Literal = joined
					continue
				}
			}
			merged = append(merged, child)
		}
		node.SetChildren(merged)
		return ast.GoToNext
	})
}

func applyInline(doc ast.Node, handlers []PatternHandler) {
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Heading, *ast.Link, *ast.Image, *ast.Table, *ast.CodeBlock, *ast.Code, *ast.HTMLBlock:
			return ast.SkipChildren
		case *ast.Text:
			if !inParagraph(n) {
				return ast.GoToNext
			}
			segments := Segments(string(n.Literal), handlers)
			if HasMatches(segments) {
				n.Literal = []byte(Join(segments))
			}
		}
		return ast.GoToNext
	})
}

func inParagraph(node ast.Node) bool {
	for p := node.GetParent(); p != nil; p = p.GetParent() {
		switch p.(type) {
		case *ast.Paragraph:
			return true
		case *ast.Heading, *ast.Link, *ast.Image, *ast.TableCell:
			return false
		}
	}
	return false
}

// Code block output is bracketed by marker lines so postProcess frames real
// code blocks only. The ┃ glyph alone is ambiguous: block quotes use it too.
const (
	codeStartMarker = '\uE010'
	codeEndMarker   = '\uE011'
)

// codeMarker wraps the terminal renderer and writes a marker line around
// every code block. The start marker carries the block quote depth so the
// right gutter can be stripped.
type codeMarker struct {
	inner gomarkdown.Renderer
	depth int
}

func (m *codeMarker) RenderNode(w io.Writer, node ast.Node, entering bool) ast.WalkStatus {
	switch node.(type) {
	case *ast.BlockQuote:
		if entering {
			m.depth++
		} else {
			m.depth--
		}
	case *ast.CodeBlock:
		fmt.Fprintf(w, "%c%d\n", codeStartMarker, m.depth)
		status := m.inner.RenderNode(w, node, entering)
		fmt.Fprintf(w, "%c\n", codeEndMarker)
		return status
	}
	return m.inner.RenderNode(w, node, entering)
}

func (m *codeMarker) RenderHeader(w io.Writer, doc ast.Node) {
	m.inner.RenderHeader(w, doc)
}

func (m *codeMarker) RenderFooter(w io.Writer, doc ast.Node) {
	m.inner.RenderFooter(w, doc)
}

func postProcess(rendered string, width int) string {
	// 1. Inline code: blue background -> red text
	rendered = fixInlineCode(rendered)

	// 2. Frame code blocks with gray horizontal lines, colour URLs elsewhere
	rendered = frameCodeBlocks(rendered, width)

	return strings.TrimRight(rendered, "\n")
}

func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func colorURLs(line string) string {
	return urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
}

func frameCodeBlocks(s string, width int) string {
	lines := strings.Split(s, "\n")
	var result []string
	var block []string
	inBlock := false
	depth := 0

	darkGray := "\x1b[90m"
	reset := "\x1b[0m"
	lineLen := width - 4

	closeBlock := func() {
		for len(block) > 0 && strings.TrimSpace(StripANSI(block[len(block)-1])) == "" {
			block = block[:len(block)-1]
		}
		result = append(result, block...)
		result = append(result, "")
		result = append(result, darkGray+strings.Repeat("━", lineLen)+reset)
		result = append(result, "")
		block = nil
		inBlock = false
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, string(codeStartMarker)):
			inBlock = true
			depth, _ = strconv.Atoi(strings.TrimPrefix(line, string(codeStartMarker)))
			label := "[code]"
			left := (lineLen - len(label)) / 2
			right := lineLen - len(label) - left
			result = append(result, "")
			result = append(result, darkGray+strings.Repeat("━", left)+reset+label+darkGray+strings.Repeat("━", right)+reset)
			result = append(result, "")
		case strings.HasPrefix(line, string(codeEndMarker)):
			if inBlock {
				closeBlock()
			}
		case inBlock:
			block = append(block, stripCodeGutter(line, depth))
		default:
			result = append(result, colorURLs(line))
		}
	}

	if inBlock {
		closeBlock()
	}

	return strings.Join(result, "\n")
}

// stripCodeGutter removes the code block gutter, the ┃ that follows the
// gutters of depth enclosing block quotes. Quote gutters are kept.
func stripCodeGutter(line string, depth int) string {
	offset := 0
	for i := 0; ; i++ {
		idx := strings.Index(line[offset:], "┃")
		if idx < 0 {
			return line
		}
		at := offset + idx
		after := at + len("┃")
		if i < depth {
			offset = after
			continue
		}
		if after < len(line) && line[after] == ' ' {
			after++
		}
		return line[:at] + line[after:]
	}
}

// StripANSI removes ANSI color sequences.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
