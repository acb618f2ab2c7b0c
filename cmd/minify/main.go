package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/woozymasta/atollmap/assets"
	"github.com/woozymasta/atollmap/internal/dataset"

	"github.com/jessevdk/go-flags"
)

// Options for exporting the viewer as a static page.
type Options struct {
	Output      string `short:"o" long:"out"         description:"Output HTML path" default:"public/index.html"`
	Title       string `short:"t" long:"title"       description:"Page title"`
	Description string `short:"d" long:"description" description:"Page description"`
	Favicon     bool   `long:"favicon"               description:"Also write favicon.svg next to the page"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	data := assets.PageData{Title: dataset.DefaultTitle, Description: dataset.DefaultDescription}
	if opts.Title != "" {
		data.Title = opts.Title
	}
	if opts.Description != "" {
		data.Description = opts.Description
	}

	page, err := assets.Page(data)
	if err != nil {
		log.Fatal("error build page:", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(opts.Output, page, 0644); err != nil {
		log.Fatal(err)
	}

	if opts.Favicon {
		icon, err := assets.Favicon()
		if err != nil {
			log.Fatal("error minify SVG:", err)
		}
		if err := os.WriteFile(filepath.Join(filepath.Dir(opts.Output), "favicon.svg"), icon, 0644); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println("minify done")
}
