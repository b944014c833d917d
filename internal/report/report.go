// Package report renders bug trees as text, JSON, YAML or Mermaid.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/bugtree/internal/diagram"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

// Output formats accepted by Write.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMermaid = "mermaid"
)

// Formats lists the output formats accepted by Write.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatMermaid}

// ValidFormat reports whether format is one of Formats.
func ValidFormat(format string) bool {
	return slices.Contains(Formats, format)
}

// Options controls rendering.
type Options struct {
	Text    TextOptions
	Diagram diagram.DiagramOptions
}

// Write renders view to w in format.
func Write(w io.Writer, format string, view tree.View, opts Options) error {
	switch format {
	case FormatText:
		return Text(w, view, opts.Text)
	case FormatJSON:
		return JSON(w, view)
	case FormatYAML:
		return YAML(w, view)
	case FormatMermaid:
		_, err := io.WriteString(w, diagram.GenerateMermaid(view, opts.Diagram)+"\n")
		return err
	default:
		return fmt.Errorf("unknown format %q: must be one of %s", format, strings.Join(Formats, ", "))
	}
}

// JSON writes view as indented JSON.
func JSON(w io.Writer, view tree.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// YAML writes view as a YAML document.
func YAML(w io.Writer, view tree.View) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return err
	}
	return enc.Close()
}
