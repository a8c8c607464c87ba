package report

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/f-sync/followqueue/internal/profiles"
)

//go:embed web/static/* web/templates/*
var embeddedFS embed.FS

const (
	templateBaseName      = "base"
	templateReportFile    = "web/templates/report.tmpl"
	templateReportName    = "report.tmpl"
	embeddedReportCSSPath = "web/static/report.css"
	embeddedReportJSPath  = "web/static/report.js"
	embedReadErrorFormat  = "embed read %s: %w"
)

func embeddedText(path string) (string, error) {
	content, err := fs.ReadFile(embeddedFS, path)
	if err != nil {
		return "", fmt.Errorf(embedReadErrorFormat, path, err)
	}
	return string(content), nil
}

// StaticAssets exposes the embedded static asset filesystem.
func StaticAssets() (fs.FS, error) {
	return fs.Sub(embeddedFS, "web/static")
}

func parseTemplates(fileSystem fs.FS, files ...string) (*template.Template, error) {
	templateWithFuncs := template.New(templateBaseName).Funcs(template.FuncMap{
		"handle":      profiles.HandleLabel,
		"statusLabel": statusLabel,
		"badgeClass":  statusBadgeClass,
	})
	parsedTemplate, err := templateWithFuncs.ParseFS(fileSystem, files...)
	if err != nil {
		return nil, err
	}
	return parsedTemplate, nil
}
