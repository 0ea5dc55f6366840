// Package mdtext converts Markdown assistant replies into plain text that
// reads well in a terminal transcript and reveals cleanly character by
// character.
//
// Markup is dropped rather than styled:
//   - Headings, emphasis and strikethrough keep only their text
//   - Links become "label (url)" unless the label is the url
//   - Images become their alt text
//   - Tables become numbered "Header: value" blocks
//   - Horizontal rules become a line of box-drawing dashes
package mdtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var parser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// Plain converts markdown into plain text.
func Plain(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	source := []byte(markdown)
	doc := parser.Parse(text.NewReader(source))

	r := &renderer{source: source}
	r.walkBlock(doc)
	return strings.TrimRight(r.buf.String(), "\n ")
}

type renderer struct {
	source    []byte
	buf       bytes.Buffer
	listDepth int
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

func (r *renderer) walkBlock(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c)
	}
}

func (r *renderer) block(node ast.Node) {
	switch n := node.(type) {
	case *ast.Document:
		r.walkBlock(n)

	case *ast.Heading, *ast.Paragraph:
		r.inlines(n)
		r.buf.WriteString("\n\n")

	case *ast.TextBlock:
		r.inlines(n)
		r.buf.WriteString("\n")

	case *ast.Blockquote:
		sub := &renderer{source: r.source}
		sub.walkBlock(n)
		for _, line := range strings.Split(strings.TrimRight(sub.buf.String(), "\n "), "\n") {
			r.buf.WriteString("> ")
			r.buf.WriteString(line)
			r.buf.WriteByte('\n')
		}
		r.buf.WriteByte('\n')

	case *ast.List:
		r.list(n)

	case *ast.ListItem:
		r.walkBlock(n)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		r.writeLines(n)
		r.buf.WriteString("\n")

	case *ast.ThematicBreak:
		r.buf.WriteString("──────────\n\n")

	case *ast.HTMLBlock:
		r.writeLines(n)
		r.buf.WriteString("\n")

	default:
		if t, ok := node.(*east.Table); ok {
			r.table(t)
			return
		}
		if node.HasChildren() {
			r.walkBlock(node)
		}
	}
}

func (r *renderer) writeLines(n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		r.buf.Write(seg.Value(r.source))
	}
}

// ---------------------------------------------------------------------------
// Inlines
// ---------------------------------------------------------------------------

func (r *renderer) inlines(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c)
	}
}

func (r *renderer) inline(node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		r.buf.Write(n.Text(r.source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			r.buf.WriteByte('\n')
		}

	case *ast.String:
		r.buf.Write(n.Value)

	case *ast.CodeSpan:
		r.buf.WriteString(r.textContent(n))

	case *ast.Link:
		label := r.textContent(n)
		dest := string(n.Destination)
		r.buf.WriteString(label)
		if dest != "" && dest != label {
			fmt.Fprintf(&r.buf, " (%s)", dest)
		}

	case *ast.AutoLink:
		r.buf.Write(n.URL(r.source))

	case *ast.Image:
		alt := r.textContent(n)
		if alt == "" {
			alt = string(n.Destination)
		}
		r.buf.WriteString(alt)

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			r.buf.Write(seg.Value(r.source))
		}

	default:
		if v, ok := node.(*east.TaskCheckBox); ok {
			if v.IsChecked {
				r.buf.WriteString("[x] ")
			} else {
				r.buf.WriteString("[ ] ")
			}
			return
		}
		// Emphasis, strikethrough and anything else: keep the text.
		if node.HasChildren() {
			r.inlines(node)
		}
	}
}

func (r *renderer) textContent(n ast.Node) string {
	var buf bytes.Buffer
	r.collectText(n, &buf)
	return buf.String()
}

func (r *renderer) collectText(node ast.Node, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Text(r.source))
		case *ast.String:
			buf.Write(t.Value)
		default:
			r.collectText(c, buf)
		}
	}
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func (r *renderer) list(n *ast.List) {
	idx := 0
	if n.Start > 0 {
		idx = n.Start - 1
	}
	indent := strings.Repeat("  ", r.listDepth)

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		item, ok := child.(*ast.ListItem)
		if !ok {
			continue
		}
		if n.IsOrdered() {
			idx++
			fmt.Fprintf(&r.buf, "%s%d. ", indent, idx)
		} else {
			r.buf.WriteString(indent)
			r.buf.WriteString("• ")
		}
		r.listItem(item)
		r.buf.WriteByte('\n')
	}
	if r.listDepth == 0 {
		r.buf.WriteByte('\n')
	}
}

func (r *renderer) listItem(item *ast.ListItem) {
	first := true
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			if !first {
				r.buf.WriteByte('\n')
				r.buf.WriteString(strings.Repeat("  ", r.listDepth+1))
			}
			r.inlines(n)
			first = false
		case *ast.List:
			r.buf.WriteByte('\n')
			r.listDepth++
			r.list(n)
			r.listDepth--
		default:
			r.block(c)
			first = false
		}
	}
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func (r *renderer) table(t *east.Table) {
	var headers []string
	var rows [][]string

	for child := t.FirstChild(); child != nil; child = child.NextSibling() {
		var cells []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(r.textContent(cell)))
		}
		switch child.(type) {
		case *east.TableHeader:
			headers = cells
		case *east.TableRow:
			rows = append(rows, cells)
		}
	}

	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}
	for len(headers) < cols {
		headers = append(headers, "")
	}
	for i := range headers {
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	for i, row := range rows {
		fmt.Fprintf(&r.buf, "%d.\n", i+1)
		for j := 0; j < cols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			fmt.Fprintf(&r.buf, "• %s: %s\n", headers[j], cell)
		}
		if i < len(rows)-1 {
			r.buf.WriteByte('\n')
		}
	}
	r.buf.WriteByte('\n')
}
