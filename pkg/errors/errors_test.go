package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	se := NewSyntax(Position{Line: 2, Column: 5}, "Expected '%s' token", ")")
	assert.Equal(t, "SyntaxError at 2:5: Expected ')' token", se.Error())
	assert.Equal(t, "Syntax", se.Kind())
	assert.Equal(t, "Expected ')' token", se.Message())

	re := NewReference(Position{Line: 1, Column: 1}, "Invalid left-hand-side expression")
	assert.Equal(t, "Reference", re.Kind())
	assert.Contains(t, re.Error(), "ReferenceError at 1:1")
}

func TestDisplayErrorPointsAtColumn(t *testing.T) {
	src := "var x = 1;\nvar y = ;\n"
	err := NewSyntax(Position{Line: 2, Column: 9}, "Expected literal")

	var sb strings.Builder
	DisplayError(&sb, src, err)
	out := sb.String()

	lines := strings.Split(out, "\n")
	assert.Equal(t, "SyntaxError at 2:9: Expected literal", lines[0])
	assert.Equal(t, "  var y = ;", lines[1])
	assert.Equal(t, "          ^", lines[2])
}

func TestDisplayErrorWithBadPosition(t *testing.T) {
	err := NewSyntax(Position{Line: 99, Column: 1}, "boom")

	var sb strings.Builder
	DisplayError(&sb, "one line", err)
	assert.Contains(t, sb.String(), "boom")
}
