package render

import (
	"strconv"
	"strings"
)

// Decl is a single CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Rule is a selector with its declarations.
type Rule struct {
	Selector string
	Decls    []Decl
}

// Keyframes is an @keyframes block. Each step's selector is a percentage.
type Keyframes struct {
	Name  string
	Steps []Rule
}

// block is anything that can be written into a stylesheet.
type block interface {
	writeCSS(b *strings.Builder)
}

// Stylesheet is an ordered list of rules and keyframe blocks.
// Blocks are serialized in insertion order.
type Stylesheet struct {
	blocks []block
}

// Add appends rules to the stylesheet.
func (s *Stylesheet) Add(rules ...Rule) {
	for _, r := range rules {
		s.blocks = append(s.blocks, r)
	}
}

// AddKeyframes appends an @keyframes block.
func (s *Stylesheet) AddKeyframes(k Keyframes) {
	s.blocks = append(s.blocks, k)
}

// Len returns the number of top-level blocks.
func (s *Stylesheet) Len() int {
	return len(s.blocks)
}

// String serializes the stylesheet, one block per line.
func (s *Stylesheet) String() string {
	var b strings.Builder
	for _, blk := range s.blocks {
		blk.writeCSS(&b)
		b.WriteByte('\n')
	}
	return b.String()
}

func (r Rule) writeCSS(b *strings.Builder) {
	b.WriteString(r.Selector)
	b.WriteString(" { ")
	for _, d := range r.Decls {
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteString("; ")
	}
	b.WriteString("}")
}

func (k Keyframes) writeCSS(b *strings.Builder) {
	b.WriteString("@keyframes ")
	b.WriteString(k.Name)
	b.WriteString(" { ")
	for _, step := range k.Steps {
		step.writeCSS(b)
		b.WriteByte(' ')
	}
	b.WriteString("}")
}

func decl(property, value string) Decl {
	return Decl{Property: property, Value: value}
}

// cssValue strips characters that could terminate a declaration or the enclosing
// <style> element. It is applied to every user-supplied value.
func cssValue(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\\', '\n', '\r':
			return -1
		}
		return r
	}, strings.TrimSpace(v))
}

// num formats a float without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func px(v float64) string {
	return num(v) + "px"
}
