package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/GameSourceFinder/internal/domain/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

// Pages renders the embedded HTML templates
type Pages struct {
	index   *template.Template
	failure *template.Template
}

type indexData struct {
	Title string
	Stats stats.Snapshot
}

type errorData struct {
	Code    int
	Message string
}

// LoadPages parses the embedded templates
func LoadPages() (*Pages, error) {
	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	errPage, err := template.ParseFS(templateFS, "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse error template: %w", err)
	}
	return &Pages{index: index, failure: errPage}, nil
}

// Index writes the landing page. Nothing is written when rendering fails.
func (p *Pages) Index(c *gin.Context, snap stats.Snapshot) error {
	var buf bytes.Buffer
	if err := p.index.Execute(&buf, indexData{Title: "Game Source Finder", Stats: snap}); err != nil {
		return err
	}
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
	return nil
}

// Error writes the error page for code, falling back to plain text
func (p *Pages) Error(c *gin.Context, code int) {
	data := errorData{Code: code, Message: http.StatusText(code)}

	var buf bytes.Buffer
	if err := p.failure.Execute(&buf, data); err != nil {
		c.String(code, "%d %s", code, data.Message)
		return
	}
	c.Data(code, contentTypeHTML, buf.Bytes())
}
