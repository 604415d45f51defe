package logging

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// HTMLLogTemplate is the embedded template rendering the HTML log file.
const HTMLLogTemplate = "log.html.tmpl"

// GetHTMLTemplate parses the named template from the embedded filesystem.
func GetHTMLTemplate(name string) (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}
