package app

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"num": func(n *int) string {
		if n == nil {
			return ""
		}
		return fmt.Sprintf("%d", *n)
	},
	"since": func(ts string) string {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return ""
		}
		return humanize.Time(t)
	},
}

func parseTemplate(filename string) *appTemplate {
	tmpl := template.Must(template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html"))
	b, err := templateFS.ReadFile("templates/" + filename)
	if err != nil {
		panic(fmt.Errorf("could not read template: %v", err))
	}
	template.Must(tmpl.New("body").Parse(string(b)))
	return &appTemplate{t: tmpl.Lookup("base.html")}
}

type appTemplate struct {
	t *template.Template
}

func (tmpl *appTemplate) Execute(w http.ResponseWriter, r *http.Request, data interface{}) *appError {
	d := struct {
		Data interface{}
	}{
		Data: data,
	}

	if err := tmpl.t.Execute(w, d); err != nil {
		return appErrorf(err, "could not write template: %v", err)
	}
	return nil
}
