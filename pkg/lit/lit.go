// Package lit implements the parser's literal table: deduplicated storage for
// string and number literals, addressed by a compressed 16-bit identifier.
package lit

import (
	"math"
	"strconv"
	"strings"
)

// ID is a compressed literal identifier. Two IDs are equal iff they refer to
// the same table entry, so equality is a plain value comparison. The zero ID
// is None.
type ID uint16

// None marks "no literal associated".
const None ID = 0

// Kind discriminates literal values.
type Kind uint8

const (
	String Kind = iota
	Number
)

// Literal is one entry of the table.
type Literal struct {
	Kind Kind
	Str  string
	Num  float64
}

// Table interns literals and hands out dense IDs. IDs start at 1; the table
// can hold up to 65535 distinct literals; interning one more panics.
type Table struct {
	entries []Literal
	strs    map[string]ID
	nums    map[float64]ID
}

// NewTable creates an empty literal table.
func NewTable() *Table {
	return &Table{
		entries: make([]Literal, 0, 64),
		strs:    make(map[string]ID),
		nums:    make(map[float64]ID),
	}
}

// Len returns the number of interned literals.
func (t *Table) Len() int {
	return len(t.entries)
}

// FindOrCreate interns a string literal.
func (t *Table) FindOrCreate(s string) ID {
	if id, ok := t.strs[s]; ok {
		return id
	}
	id := t.nextID()
	t.entries = append(t.entries, Literal{Kind: String, Str: s})
	t.strs[s] = id
	return id
}

// FindOrCreateNumber interns a number literal, deduplicated by value.
func (t *Table) FindOrCreateNumber(n float64) ID {
	if id, ok := t.nums[n]; ok {
		return id
	}
	id := t.nextID()
	t.entries = append(t.entries, Literal{Kind: Number, Num: n})
	t.nums[n] = id
	return id
}

func (t *Table) nextID() ID {
	if len(t.entries) >= math.MaxUint16 {
		panic("lit: literal table overflow")
	}
	return ID(len(t.entries) + 1)
}

// Get returns the literal for id. id must not be None.
func (t *Table) Get(id ID) Literal {
	return t.entries[int(id)-1]
}

// IsString reports whether id refers to a string literal equal to s.
func (t *Table) IsString(id ID, s string) bool {
	if id == None {
		return false
	}
	l := t.Get(id)
	return l.Kind == String && l.Str == s
}

// StringOf returns the string form of a literal: the string itself, or the
// ECMA-style decimal rendering for numbers.
func (t *Table) StringOf(id ID) string {
	l := t.Get(id)
	if l.Kind == String {
		return l.Str
	}
	return NumberToString(l.Num)
}

// NumberToString renders a number the way ToString does for property names
// derived from numeric literals.
func NumberToString(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	if a := math.Abs(n); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'e', -1, 64)
	s = strings.Replace(s, "e-0", "e-", 1)
	return strings.Replace(s, "e+0", "e+", 1)
}
