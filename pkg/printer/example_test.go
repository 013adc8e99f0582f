package printer_test

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/luaconf/luaconf/pkg/config"
	"github.com/luaconf/luaconf/pkg/printer"
)

// ExamplePrinter_PrintTable renders a whole configuration in pretty format.
func ExamplePrinter_PrintTable() {
	dir, err := os.MkdirTemp("", "luaconf-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "app.star")
	if err := os.WriteFile(path, []byte(`{"name": "widget", "count": 42}`), 0644); err != nil {
		log.Fatal(err)
	}

	h, err := config.Load(context.Background(), path, config.Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	if err := printer.New(os.Stdout, printer.FormatPretty).PrintTable(h); err != nil {
		log.Fatal(err)
	}
	// Output:
	// {
	//   "name" : "widget"
	//   "count" : "42"
	// }
}
