package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

//go:embed templates
var templateFS embed.FS

const composerPage = "admin/newsletter"

var pageNames = []string{
	"about",
	"contact",
	"ignite",
	"journal",
	"journal1",
	"journal2",
	"journal3",
	"journal4",
	"journal5",
	"journal6",
	"journal7",
	"journal8",
	"journal9",
	"journal10",
	"leadership_coaching",
	"leadership_consultancy",
	"leadership_workshops",
	"podcast",
	"shop",
	"speaking",
	"values",
	"vision",
}

type pages struct {
	templates map[string]*template.Template
}

type pageData struct {
	Path string
	Site string
	Year int

	// composer only
	Active    int
	BatchSize int
}

func parsePages() (*pages, error) {
	p := &pages{templates: make(map[string]*template.Template)}

	names := append([]string{"index", composerPage}, pageNames...)
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse page %s", name)
		}
		p.templates[name] = tmpl
	}

	return p, nil
}

func (p *pages) render(w http.ResponseWriter, name string, data *pageData) error {
	tmpl, ok := p.templates[name]
	if !ok {
		return errors.Errorf("unknown page %s", name)
	}

	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "failed to render page %s", name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

func (s *Server) pageHandler(name string) appHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		return s.pages.render(w, name, &pageData{
			Path: r.URL.Path,
			Site: s.SiteName,
		})
	}
}
