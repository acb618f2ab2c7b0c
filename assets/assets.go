// Package assets embeds the map viewer and builds its minified page.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

var (
	//go:embed index.html.tpl
	indexTemplate string

	//go:embed style.css
	styleCSS string

	//go:embed script.js
	scriptJS string

	//go:embed favicon.svg
	faviconSVG string
)

// PageData fills the viewer template.
type PageData struct {
	Title       string
	Description string
}

type pageVars struct {
	PageData
	CSS template.CSS
	JS  template.JS
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// Page renders the viewer page with inlined, minified CSS and JS.
func Page(data PageData) ([]byte, error) {
	m := newMinifier()

	cssMin, err := m.String("text/css", styleCSS)
	if err != nil {
		return nil, fmt.Errorf("minify css: %w", err)
	}

	jsMin, err := m.String("text/javascript", scriptJS)
	if err != nil {
		return nil, fmt.Errorf("minify js: %w", err)
	}

	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, pageVars{
		PageData: data,
		CSS:      template.CSS(cssMin),
		JS:       template.JS(jsMin),
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}

	return out, nil
}

// Favicon returns the minified site icon.
func Favicon() ([]byte, error) {
	out, err := newMinifier().String("image/svg+xml", faviconSVG)
	if err != nil {
		return nil, fmt.Errorf("minify svg: %w", err)
	}
	return []byte(out), nil
}
