package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownToHTML = goldmark.New(goldmark.WithExtensions(extension.Table))

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; color: #222; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: .3rem .6rem; }
blockquote { border-left: 4px solid #4a7; margin: 1rem 0; padding-left: 1rem; }
@media print { body { margin: 0; max-width: none; } }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML converts a Markdown report into a standalone printable page.
func HTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := markdownToHTML.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out.String(), nil
}

// Terminal styles a Markdown report for the terminal. A non-positive width
// disables wrapping.
func Terminal(markdown string, dark bool, width int) (string, error) {
	style := "light"
	if dark {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return out, nil
}
