package render

import (
	"html"
	"strings"
)

type attr struct {
	name  string
	value string
}

// node is a minimal element tree. Text and attribute values are escaped when the
// tree is serialized; raw content is reserved for generated <style> and <script> bodies.
type node struct {
	tag      string
	attrs    []attr
	children []*node
	text     string
	raw      bool
	isText   bool
	void     bool
	block    bool // children on their own lines
}

func el(tag string, attrs ...attr) *node {
	return &node{tag: tag, attrs: attrs}
}

func voidEl(tag string, attrs ...attr) *node {
	return &node{tag: tag, attrs: attrs, void: true}
}

func textNode(s string) *node {
	return &node{text: s, isText: true}
}

func rawNode(s string) *node {
	return &node{text: s, isText: true, raw: true}
}

func a(name, value string) attr {
	return attr{name: name, value: value}
}

func (n *node) add(children ...*node) *node {
	for _, c := range children {
		if c != nil {
			n.children = append(n.children, c)
		}
	}
	return n
}

func (n *node) blockLayout() *node {
	n.block = true
	return n
}

func (n *node) write(b *strings.Builder) {
	if n.isText {
		if n.raw {
			b.WriteString(n.text)
		} else {
			b.WriteString(html.EscapeString(n.text))
		}
		return
	}
	b.WriteByte('<')
	b.WriteString(n.tag)
	for _, at := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(at.name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(at.value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	if n.void {
		return
	}
	for _, c := range n.children {
		if n.block {
			b.WriteByte('\n')
		}
		c.write(b)
	}
	if n.block && len(n.children) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}

func (n *node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}
