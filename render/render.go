package render

import (
	"bytes"
	"html/template"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Renderer renders the newsletter HTML templates
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses every template in fsys matching the patterns.
// Templates are addressed by their base file name.
func NewRenderer(fsys fs.FS, patterns ...string) (*Renderer, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.html"}
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"markdown": Markdown,
	}).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "template.ParseFS")
	}

	return &Renderer{tmpl: tmpl}, nil
}

// NewDirRenderer parses the *.html templates of dir.
func NewDirRenderer(dir string) (*Renderer, error) {
	return NewRenderer(os.DirFS(dir), "*.html")
}

func (r *Renderer) Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s", name)
	}
	return buf.String(), nil
}

// Markdown converts text to HTML. Raw HTML in the source is omitted.
func Markdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", errors.Wrap(err, "goldmark.Convert")
	}
	return template.HTML(buf.String()), nil
}
