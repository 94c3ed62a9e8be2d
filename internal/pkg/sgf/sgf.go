/*
Package sgf reads and writes game records in the Smart Game Format. It
implements the collection grammar (game trees of node sequences with
property lists) without interpreting the properties themselves; callers
decide what PB, PW, or a move property means for their game.
*/
package sgf

import (
	"fmt"
	"strings"
	"unicode"
)

// GameTree is one parenthesized tree: a mainline sequence of nodes followed
// by zero or more variation subtrees.
type GameTree struct {
	Sequence []*Node
	Subtrees []*GameTree
}

// Node is one semicolon-introduced node holding its properties in input order.
type Node struct {
	Properties []Property
}

// Property is an upper-case identifier with one or more bracketed values.
type Property struct {
	Ident  string
	Values []string
}

// ParseError reports where in the input the grammar was violated.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sgf: offset %d: %s", e.Offset, e.Reason)
}

// Parse reads a single game tree from input. Trailing content after the
// closing parenthesis other than whitespace is an error.
func Parse(input string) (*GameTree, error) {
	p := &parser{input: []rune(input)}

	tree, err := p.gameTree()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.atEnd() {
		return nil, p.errorf("unexpected content after game tree")
	}

	return tree, nil
}

// ParseCollection reads a whole SGF collection: one or more game trees back
// to back, as stored in a record file.
func ParseCollection(input string) ([]*GameTree, error) {
	p := &parser{input: []rune(input)}

	var trees []*GameTree
	for {
		tree, err := p.gameTree()
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)

		p.skipSpace()
		if p.atEnd() {
			return trees, nil
		}
	}
}

// String renders the tree back to SGF text. Parse followed by String is
// stable apart from whitespace between tokens.
func (t *GameTree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *GameTree) write(b *strings.Builder) {
	b.WriteByte('(')
	for _, node := range t.Sequence {
		b.WriteByte(';')
		for _, property := range node.Properties {
			b.WriteString(property.Ident)
			for _, value := range property.Values {
				b.WriteByte('[')
				b.WriteString(escapeValue(value))
				b.WriteByte(']')
			}
		}
	}
	for _, subtree := range t.Subtrees {
		subtree.write(b)
	}
	b.WriteByte(')')
}

// escapeValue protects the two characters that are structural inside a
// bracketed value.
func escapeValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, "]", `\]`)
}

// Property returns the first property with the given identifier found on the
// mainline sequence, or false when no node carries it.
func (t *GameTree) Property(ident string) (Property, bool) {
	for _, node := range t.Sequence {
		for _, property := range node.Properties {
			if property.Ident == ident {
				return property, true
			}
		}
	}
	return Property{}, false
}

type parser struct {
	input []rune
	pos   int
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() rune {
	return p.input[p.pos]
}

func (p *parser) next() rune {
	r := p.input[p.pos]
	p.pos++
	return r
}

func (p *parser) skipSpace() {
	for !p.atEnd() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Offset: p.pos, Reason: fmt.Sprintf(format, args...)}
}

// gameTree parses "(" sequence { gameTree } ")".
func (p *parser) gameTree() (*GameTree, error) {
	p.skipSpace()
	if p.atEnd() || p.peek() != '(' {
		return nil, p.errorf("expected '('")
	}
	p.next()

	tree := &GameTree{}

	sequence, err := p.sequence()
	if err != nil {
		return nil, err
	}
	tree.Sequence = sequence

	for {
		p.skipSpace()
		if p.atEnd() {
			return nil, p.errorf("unterminated game tree, expected ')'")
		}
		if p.peek() == ')' {
			p.next()
			return tree, nil
		}

		subtree, err := p.gameTree()
		if err != nil {
			return nil, err
		}
		tree.Subtrees = append(tree.Subtrees, subtree)
	}
}

// sequence parses one or more nodes.
func (p *parser) sequence() ([]*Node, error) {
	var nodes []*Node

	node, err := p.node()
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, node)

	for {
		p.skipSpace()
		if p.atEnd() || p.peek() != ';' {
			return nodes, nil
		}

		node, err := p.node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

// node parses ";" { property }.
func (p *parser) node() (*Node, error) {
	p.skipSpace()
	if p.atEnd() || p.peek() != ';' {
		return nil, p.errorf("expected ';'")
	}
	p.next()

	node := &Node{}
	for {
		p.skipSpace()
		if p.atEnd() || !unicode.IsUpper(p.peek()) {
			return node, nil
		}

		property, err := p.property()
		if err != nil {
			return nil, err
		}
		node.Properties = append(node.Properties, property)
	}
}

// property parses an upper-case identifier followed by one or more values.
func (p *parser) property() (Property, error) {
	var ident strings.Builder
	for !p.atEnd() && unicode.IsUpper(p.peek()) {
		ident.WriteRune(p.next())
	}

	property := Property{Ident: ident.String()}

	p.skipSpace()
	if p.atEnd() || p.peek() != '[' {
		return Property{}, p.errorf("property %s has no value", property.Ident)
	}

	for !p.atEnd() && p.peek() == '[' {
		value, err := p.propertyValue()
		if err != nil {
			return Property{}, err
		}
		property.Values = append(property.Values, value)
		p.skipSpace()
	}

	return property, nil
}

// propertyValue parses "[" text "]" where backslash escapes the next rune.
func (p *parser) propertyValue() (string, error) {
	p.next() // consume '['

	var value strings.Builder
	for {
		if p.atEnd() {
			return "", p.errorf("unterminated property value")
		}

		r := p.next()
		switch r {
		case '\\':
			if p.atEnd() {
				return "", p.errorf("unterminated escape in property value")
			}
			value.WriteRune(p.next())
		case ']':
			return value.String(), nil
		default:
			value.WriteRune(r)
		}
	}
}
