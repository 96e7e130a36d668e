package wire

import (
	"bytes"
	"time"
)

// Parser is a cursor over an immutable byte slice, with Try-scoped
// backtracking. All combinators except Word leave pos unchanged on failure.
type Parser struct {
	s   []byte
	pos int
}

// NewParser returns a Parser positioned at the start of s.
func NewParser(s []byte) *Parser {
	return &Parser{s: s}
}

// Pos returns the current cursor position.
func (p *Parser) Pos() int {
	return p.pos
}

// Rest returns the unconsumed tail of the input.
func (p *Parser) Rest() []byte {
	return p.s[p.pos:]
}

// End reports whether the cursor has reached the end of input.
func (p *Parser) End() bool {
	return p.pos >= len(p.s)
}

// Take consumes and returns exactly n bytes, or fails without advancing.
func (p *Parser) Take(n int) ([]byte, bool) {
	if n < 0 || p.pos+n > len(p.s) {
		return nil, false
	}
	b := p.s[p.pos : p.pos+n]
	p.pos += n
	return b, true
}

// TakeWhile1 consumes one or more bytes satisfying pred, or fails without
// advancing if none match.
func (p *Parser) TakeWhile1(pred func(byte) bool) ([]byte, bool) {
	start := p.pos
	for p.pos < len(p.s) && pred(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, false
	}
	return p.s[start:p.pos], true
}

// Word consumes bytes up to the next space or end of input. It may return
// an empty slice. Unlike every other combinator, Word always advances past
// the bytes it returns, but never past a terminating space.
func (p *Parser) Word() []byte {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ' ' {
		p.pos++
	}
	return p.s[start:p.pos]
}

// Space consumes exactly one ASCII space, or fails without advancing.
func (p *Parser) Space() bool {
	if p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
		return true
	}
	return false
}

// Str matches the literal byte sequence tag at the cursor, advancing on
// match and leaving pos unchanged on failure.
func (p *Parser) Str(tag []byte) bool {
	if p.pos+len(tag) > len(p.s) {
		return false
	}
	if !bytes.Equal(p.s[p.pos:p.pos+len(tag)], tag) {
		return false
	}
	p.pos += len(tag)
	return true
}

// Tag is one entry of a SomeStr tag set: a symbolic name and the literal
// bytes it matches on the wire.
type Tag struct {
	Name  string
	Bytes []byte
}

// SomeStr tries each candidate in order (the set's declared order) and
// returns the name of the first that matches at the cursor, advancing past
// it. It fails without advancing if none match.
func (p *Parser) SomeStr(tags []Tag) (string, bool) {
	for _, t := range tags {
		if p.Str(t.Bytes) {
			return t.Name, true
		}
	}
	return "", false
}

func isBase64Char(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '+' || b == '/'
}

// Base64 consumes the maximal prefix of base64 alphabet bytes followed by
// up to two '=' padding bytes, and decodes it. It fails (without advancing)
// if the consumed run is empty or does not decode.
func (p *Parser) Base64() ([]byte, bool) {
	start := p.pos
	n := p.pos
	for n < len(p.s) && isBase64Char(p.s[n]) {
		n++
	}
	end := n
	for end < len(p.s) && end < n+2 && p.s[end] == '=' {
		end++
	}
	if end == start {
		return nil, false
	}
	decoded, err := decodeBase64(p.s[start:end])
	if err != nil {
		return nil, false
	}
	p.pos = end
	return decoded, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Decimal consumes one or more ASCII digits and returns their unsigned
// value. It fails without advancing if the cursor is not at a digit.
func (p *Parser) Decimal() (uint64, bool) {
	digits, ok := p.TakeWhile1(isDigit)
	if !ok {
		return 0, false
	}
	var v uint64
	for _, d := range digits {
		v = v*10 + uint64(d-'0')
	}
	return v, true
}

// Date consumes a Word and parses it as an RFC3339/ISO-8601 instant. It
// fails without advancing if the word does not parse.
func (p *Parser) Date() (time.Time, bool) {
	saved := p.pos
	w := p.Word()
	t, err := time.Parse(time.RFC3339Nano, string(w))
	if err != nil {
		p.pos = saved
		return time.Time{}, false
	}
	return t, true
}

// Try runs fn with backtracking: if fn reports failure, the cursor is
// restored to its position before the call.
func Try[T any](p *Parser, fn func() (T, bool)) (T, bool) {
	saved := p.pos
	v, ok := fn()
	if !ok {
		p.pos = saved
	}
	return v, ok
}
