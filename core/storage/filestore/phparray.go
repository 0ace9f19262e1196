// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package filestore

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

var (
	errPHPSyntax   = errors.New("unsupported PHP translation file")
	errPHPNotArray = errors.New("PHP translation file does not return an array")

	// phpIntKey matches keys that PHP stores as integers.
	phpIntKey = regexp.MustCompile(`^(0|-?[1-9][0-9]*)$`)
)

// encodePHP renders g the way PHP's var_export does, wrapped in a file that
// returns it.
//
// Keys are written in sorted order.
func encodePHP(g catalog.Group) []byte {
	var b strings.Builder

	b.WriteString("<?php\n\nreturn ")
	writePHPArray(&b, g, 0)
	b.WriteString(";\n")

	return []byte(b.String())
}

func writePHPArray(b *strings.Builder, g catalog.Group, depth int) {
	b.WriteString("array (\n")

	indent := strings.Repeat("  ", depth+1)

	keys := make([]string, 0, len(g))
	for key := range g {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		node := g[key]

		b.WriteString(indent)

		if phpIntKey.MatchString(key) {
			b.WriteString(key)
		} else {
			writePHPString(b, key)
		}

		b.WriteString(" => ")

		if node.IsLeaf() {
			writePHPString(b, node.Value)
		} else {
			b.WriteString("\n")
			b.WriteString(indent)
			writePHPArray(b, node.Children, depth+1)
		}

		b.WriteString(",\n")
	}

	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(")")
}

func writePHPString(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s))
	b.WriteByte('\'')
}

// decodePHP reads a PHP file that returns an array literal.
//
// It understands var_export output as well as hand-written files using short
// array syntax, double quoted strings, list entries, scalars and comments.
func decodePHP(src []byte) (catalog.Group, error) {
	p := &phpParser{src: string(src)}

	p.skipSpace()

	if !strings.HasPrefix(p.rest(), "<?php") {
		return nil, fmt.Errorf("%w: missing <?php tag", errPHPSyntax)
	}

	p.pos += len("<?php")

	// Skip statements such as declare() or use until the return.
	for {
		p.skipSpace()

		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: no return statement", errPHPSyntax)
		}

		if p.word() == "return" {
			break
		}

		end := strings.IndexByte(p.rest(), ';')
		if end < 0 {
			return nil, fmt.Errorf("%w: no return statement", errPHPSyntax)
		}

		p.pos += end + 1
	}

	p.pos += len("return")

	node, err := p.value()
	if err != nil {
		return nil, err
	}

	if node.IsLeaf() {
		return nil, errPHPNotArray
	}

	return catalog.Group(node.Children), nil
}

type phpParser struct {
	src string
	pos int
}

func (p *phpParser) rest() string {
	return p.src[p.pos:]
}

func (p *phpParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}

	return p.src[p.pos]
}

func (p *phpParser) errorf(format string, args ...any) error {
	line := strings.Count(p.src[:min(p.pos, len(p.src))], "\n") + 1

	return fmt.Errorf("%w: line %d: %s", errPHPSyntax, line, fmt.Sprintf(format, args...))
}

// skipSpace skips whitespace and comments.
func (p *phpParser) skipSpace() {
	for p.pos < len(p.src) {
		rest := p.rest()

		switch {
		case rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r':
			p.pos++
		case strings.HasPrefix(rest, "//") || rest[0] == '#':
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 1
			}
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 4
			}
		default:
			return
		}
	}
}

// word returns the identifier at the current position without consuming it.
func (p *phpParser) word() string {
	end := p.pos
	for end < len(p.src) {
		c := p.src[end]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9' || end == p.pos) {
			break
		}

		end++
	}

	return p.src[p.pos:end]
}

func (p *phpParser) value() (*catalog.Node, error) {
	p.skipSpace()

	switch c := p.peek(); {
	case c == '[':
		p.pos++

		return p.entries(']')
	case c == '\'':
		s, err := p.singleQuoted()

		return catalog.Leaf(s), err
	case c == '"':
		s, err := p.doubleQuoted()

		return catalog.Leaf(s), err
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return catalog.Leaf(p.number()), nil
	}

	w := p.word()

	switch strings.ToLower(w) {
	case "array":
		p.pos += len(w)
		p.skipSpace()

		if p.peek() != '(' {
			return nil, p.errorf("expected ( after array")
		}

		p.pos++

		return p.entries(')')
	case "true":
		p.pos += len(w)

		return catalog.Leaf("1"), nil
	case "false", "null":
		p.pos += len(w)

		return catalog.Leaf(""), nil
	}

	return nil, p.errorf("unexpected %q", p.peek())
}

func (p *phpParser) entries(closing byte) (*catalog.Node, error) {
	children := make(map[string]*catalog.Node)
	next := 0

	for {
		p.skipSpace()

		if p.peek() == closing {
			p.pos++

			return catalog.Branch(children), nil
		}

		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}

		first, err := p.value()
		if err != nil {
			return nil, err
		}

		p.skipSpace()

		if strings.HasPrefix(p.rest(), "=>") {
			p.pos += 2

			if !first.IsLeaf() {
				return nil, p.errorf("array used as key")
			}

			val, err := p.value()
			if err != nil {
				return nil, err
			}

			children[first.Value] = val

			if n, err := strconv.Atoi(first.Value); err == nil && n >= next {
				next = n + 1
			}
		} else {
			children[strconv.Itoa(next)] = first
			next++
		}

		p.skipSpace()

		switch p.peek() {
		case ',':
			p.pos++
		case closing:
		default:
			return nil, p.errorf("expected , or %c", closing)
		}
	}
}

func (p *phpParser) number() string {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eExXabcdefABCDEF_", p.src[p.pos]) >= 0 {
		p.pos++
	}

	return p.src[start:p.pos]
}

func (p *phpParser) singleQuoted() (string, error) {
	var b strings.Builder

	for p.pos++; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]

		switch {
		case c == '\'':
			p.pos++

			return b.String(), nil
		case c == '\\' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\'' || p.src[p.pos+1] == '\\'):
			p.pos++
			b.WriteByte(p.src[p.pos])
		default:
			b.WriteByte(c)
		}
	}

	return "", p.errorf("unterminated string")
}

var phpEscapes = map[byte]string{
	'n': "\n", 't': "\t", 'r': "\r", 'v': "\v", 'f': "\f", 'e': "\x1b",
	'\\': `\`, '$': "$", '"': `"`,
}

func (p *phpParser) doubleQuoted() (string, error) {
	var b strings.Builder

	for p.pos++; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]

		if c == '"' {
			p.pos++

			return b.String(), nil
		}

		if c != '\\' || p.pos+1 >= len(p.src) {
			b.WriteByte(c)

			continue
		}

		next := p.src[p.pos+1]
		if esc, ok := phpEscapes[next]; ok {
			b.WriteString(esc)
			p.pos++

			continue
		}

		if next == 'u' && p.pos+2 < len(p.src) && p.src[p.pos+2] == '{' {
			end := strings.IndexByte(p.src[p.pos:], '}')
			if end > 0 {
				if r, err := strconv.ParseUint(p.src[p.pos+3:p.pos+end], 16, 32); err == nil {
					b.WriteString(string(rune(r)))
					p.pos += end

					continue
				}
			}
		}

		if next == 'x' && p.pos+3 < len(p.src) {
			if v, err := strconv.ParseUint(p.src[p.pos+2:p.pos+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				p.pos += 3

				continue
			}
		}

		b.WriteByte(c)
	}

	return "", p.errorf("unterminated string")
}
