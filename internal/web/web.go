// Package web serves the browser UI: server-rendered page shells that
// talk to the JSON API from static/app.js.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options configure the UI.
type Options struct {
	// APIBaseURL is prefixed to every API call. Empty means same origin.
	APIBaseURL string
}

type page struct {
	Title      string
	Page       string
	APIBaseURL string
	FormID     int64
}

// Register mounts the UI routes on r.
func Register(r *gin.Engine, opts Options) error {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	sw, err := fs.ReadFile(static, "sw.js")
	if err != nil {
		return err
	}

	r.StaticFS("/static", http.FS(static))
	r.GET("/sw.js", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/javascript; charset=utf-8", sw)
	})

	r.GET("/", render(opts, "submit.html", "submit", "Fișa Studentului", false))
	r.GET("/admin", render(opts, "admin_list.html", "list", "Admin Panel", false))
	r.GET("/admin/forms/:id", render(opts, "admin_detail.html", "detail", "Detalii Formular", true))
	r.GET("/admin/forms/:id/edit", render(opts, "admin_edit.html", "edit", "Editează Formular", true))
	return nil
}

func render(opts Options, name, view, title string, withID bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := page{Title: title, Page: view, APIBaseURL: opts.APIBaseURL}
		if withID {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil || id < 1 {
				c.String(http.StatusNotFound, "Pagina nu a fost găsită")
				return
			}
			p.FormID = id
		}
		c.HTML(http.StatusOK, name, p)
	}
}
