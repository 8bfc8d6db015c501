package source

import (
	"path/filepath"
	"strings"
)

// SourceFile represents a source buffer with its display metadata.
type SourceFile struct {
	Name    string // display name (e.g. "script.js", "<eval>")
	Path    string // full file path (empty for eval input)
	Content string
	lines   []string // cached split lines
}

// NewScriptSource creates a source file for global script code.
func NewScriptSource(content string) *SourceFile {
	return &SourceFile{Name: "<script>", Content: content}
}

// NewEvalSource creates a source file for code passed to eval().
func NewEvalSource(content string) *SourceFile {
	return &SourceFile{Name: "<eval>", Content: content}
}

// FromFile creates a SourceFile from a file path and content.
func FromFile(filePath, content string) *SourceFile {
	return &SourceFile{Name: filepath.Base(filePath), Path: filePath, Content: content}
}

// Lines returns the source split into lines (cached).
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// DisplayPath returns the best path for display.
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile reports whether this source was read from an actual file.
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}
