package printer

import (
	"fmt"
	"io"
	"iter"

	"gopkg.in/yaml.v3"

	"github.com/luaconf/luaconf/pkg/config"
)

// Source is the read side of a configuration handle.
type Source interface {
	Get(key string) (string, error)
	Entries() iter.Seq2[config.Entry, error]
}

// Printer writes entries to w in a fixed format.
type Printer struct {
	w      io.Writer
	format Format
}

// New creates a printer.
func New(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Format returns the printer's layout.
func (p *Printer) Format() Format {
	return p.format
}

// Render writes one key/value line. Both sides are always double-quoted.
// Nothing is written for an empty key.
func (p *Printer) Render(key, value string) error {
	if key == "" {
		return nil
	}

	if p.format == FormatYAML {
		return p.encodeYAML([]config.Entry{{Key: key, Value: value}})
	}

	indent := ""
	if p.format == FormatIndented || p.format == FormatPretty {
		indent = "  "
	}
	_, err := fmt.Fprintf(p.w, "%s%q : %q\n", indent, key, value)
	return err
}

// PrintKey looks key up and renders it. A lookup failure writes nothing and
// is returned to the caller.
func (p *Printer) PrintKey(src Source, key string) error {
	value, err := src.Get(key)
	if err != nil {
		return err
	}
	return p.Render(key, value)
}

// PrintTable renders every entry. Entries seen before a structural
// violation are still written, then the violation is returned. Pretty
// output is wrapped in braces even when the scan fails.
func (p *Printer) PrintTable(src Source) error {
	if p.format == FormatYAML {
		return p.printYAML(src)
	}

	if p.format == FormatPretty {
		if _, err := io.WriteString(p.w, "{\n"); err != nil {
			return err
		}
	}

	var scanErr error
	for entry, err := range src.Entries() {
		if err != nil {
			scanErr = err
			break
		}
		if err := p.Render(entry.Key, entry.Value); err != nil {
			return err
		}
	}

	if p.format == FormatPretty {
		if _, err := io.WriteString(p.w, "}\n"); err != nil {
			return err
		}
	}

	return scanErr
}

func (p *Printer) printYAML(src Source) error {
	var (
		entries []config.Entry
		scanErr error
	)
	for entry, err := range src.Entries() {
		if err != nil {
			scanErr = err
			break
		}
		entries = append(entries, entry)
	}

	if err := p.encodeYAML(entries); err != nil {
		return err
	}
	return scanErr
}

// encodeYAML writes entries as a mapping node so that order is preserved
// and numeric-looking values stay strings.
func (p *Printer) encodeYAML(entries []config.Entry) error {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
