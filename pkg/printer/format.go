// Package printer renders configuration entries as text.
package printer

import (
	"fmt"
	"strings"
)

// Format selects the layout of rendered entries. It never changes the data.
type Format int

const (
	// FormatNone renders `"key" : "value"` lines without indentation.
	FormatNone Format = iota

	// FormatIndented prefixes every line with two spaces.
	FormatIndented

	// FormatPretty indents like FormatIndented and wraps whole-table
	// output in braces.
	FormatPretty

	// FormatYAML renders whole-table output as an ordered YAML mapping.
	FormatYAML
)

var formatNames = map[Format]string{
	FormatNone:     "none",
	FormatIndented: "indent",
	FormatPretty:   "pretty",
	FormatYAML:     "yaml",
}

// String returns the flag spelling of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a flag spelling such as "pretty".
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return FormatNone, fmt.Errorf("unknown format %q (want none, indent, pretty or yaml)", s)
}

// FormatNames lists the accepted spellings in declaration order.
func FormatNames() []string {
	return []string{"none", "indent", "pretty", "yaml"}
}
