package printer

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/luaconf/luaconf/pkg/config"
)

type fakeSource struct {
	entries []config.Entry
	tail    error
}

func (f fakeSource) Get(key string) (string, error) {
	for _, e := range f.entries {
		if e.Key == key {
			return e.Value, nil
		}
	}
	return "", config.NewNotFound("key not present in configuration").WithKey(key)
}

func (f fakeSource) Entries() iter.Seq2[config.Entry, error] {
	return func(yield func(config.Entry, error) bool) {
		for _, e := range f.entries {
			if !yield(e, nil) {
				return
			}
		}
		if f.tail != nil {
			yield(config.Entry{}, f.tail)
		}
	}
}

var widget = fakeSource{entries: []config.Entry{
	{Key: "name", Value: "widget"},
	{Key: "count", Value: "42"},
}}

func TestRender(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatNone, "\"name\" : \"widget\"\n"},
		{FormatIndented, "  \"name\" : \"widget\"\n"},
		{FormatPretty, "  \"name\" : \"widget\"\n"},
		{FormatYAML, "name: widget\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := New(&buf, tt.format).Render("name", "widget"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestRender_EmptyKeyIsNoop(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatPretty).Render("", "value"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestRender_QuotesSpecialCharacters(t *testing.T) {
	var buf bytes.Buffer
	_ = New(&buf, FormatNone).Render("motd", "say \"hi\"\n")
	want := "\"motd\" : \"say \\\"hi\\\"\\n\"\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestPrintKey(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, FormatPretty)

	if err := p.PrintKey(widget, "count"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := buf.String(), "  \"count\" : \"42\"\n"; got != want {
		t.Errorf("single-entry output must not be wrapped: expected %q, got %q", want, got)
	}

	buf.Reset()
	err := p.PrintKey(widget, "missing")
	if !config.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("a miss must print nothing, got %q", buf.String())
	}
}

func TestPrintTable(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatNone, "\"name\" : \"widget\"\n\"count\" : \"42\"\n"},
		{FormatIndented, "  \"name\" : \"widget\"\n  \"count\" : \"42\"\n"},
		{FormatPretty, "{\n  \"name\" : \"widget\"\n  \"count\" : \"42\"\n}\n"},
		{FormatYAML, "name: widget\ncount: \"42\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := New(&buf, tt.format).PrintTable(widget); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatPretty).PrintTable(fakeSource{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "{\n}\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintTable_PartialOutputOnViolation(t *testing.T) {
	src := fakeSource{
		entries: widget.entries[:1],
		tail:    config.NewStructuralViolation("table key of type number is not a string"),
	}

	var buf bytes.Buffer
	err := New(&buf, FormatPretty).PrintTable(src)
	if !config.IsStructuralViolation(err) {
		t.Fatalf("expected structural violation, got %v", err)
	}
	if got, want := buf.String(), "{\n  \"name\" : \"widget\"\n}\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestPrintTable_WriteError(t *testing.T) {
	if err := New(failingWriter{}, FormatNone).PrintTable(widget); err == nil {
		t.Error("expected write error")
	}
}

func TestPrintTable_LoadedHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.lua")
	if err := os.WriteFile(path, []byte(`return { only = 7 }`), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	h, err := config.Load(context.Background(), path, config.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer h.Close()

	var buf bytes.Buffer
	if err := New(&buf, FormatNone).PrintTable(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "\"only\" : \"7\"\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range FormatNames() {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", name, err)
		}
		if f.String() != name {
			t.Errorf("expected %q, got %q", name, f.String())
		}
	}

	if f, err := ParseFormat("PRETTY"); err != nil || f != FormatPretty {
		t.Errorf("expected case-insensitive parse, got %v (%v)", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
