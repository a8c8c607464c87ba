// Package report renders the analyzed relationships as a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/profiles"
)

const pageTitleText = "Follow Queue"

// PageData captures the state needed to render the report page.
type PageData struct {
	State  *profiles.AppState
	Errors []string
	// Interactive adds queue controls that call the HTTP API.
	Interactive bool
	BatchSize   int
}

// Render assembles the HTML output using the embedded assets and templates.
func Render(pageData PageData) (string, error) {
	cssText, err := embeddedText(embeddedReportCSSPath)
	if err != nil {
		return "", err
	}
	jsText := ""
	if pageData.Interactive {
		jsText, err = embeddedText(embeddedReportJSPath)
		if err != nil {
			return "", err
		}
	}
	viewModel := newReportViewModel(pageData, cssText, jsText)
	tmpl, err := parseTemplates(embeddedFS, templateReportFile)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buffer bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buffer, templateReportName, viewModel); err != nil {
		return "", fmt.Errorf("template execute: %w", err)
	}
	return buffer.String(), nil
}

type reportViewModel struct {
	Title       string
	HasState    bool
	Interactive bool
	BatchSize   int

	Stats    profiles.RelationshipStats
	Total    int
	Sections []sectionViewModel
	Errors   []string

	CSS template.CSS
	JS  template.JS
}

type sectionViewModel struct {
	ID        string
	Title     string
	Summary   string
	Progress  actionqueue.Progress
	// NextBatch is how many profiles the next batch open visits.
	NextBatch int
	Profiles  []profiles.AnalyzedProfile
}

func newReportViewModel(pageData PageData, cssText string, jsText string) reportViewModel {
	viewModel := reportViewModel{
		Title:       pageTitleText,
		Interactive: pageData.Interactive,
		BatchSize:   pageData.BatchSize,
		CSS:         template.CSS(cssText),
		JS:          template.JS(jsText),
	}
	if viewModel.BatchSize <= 0 {
		viewModel.BatchSize = actionqueue.DefaultBatchSize
	}
	if len(pageData.Errors) > 0 {
		viewModel.Errors = append(viewModel.Errors, pageData.Errors...)
	}
	if pageData.State == nil {
		return viewModel
	}

	state := *pageData.State
	viewModel.HasState = true
	viewModel.Stats = state.Stats
	viewModel.Total = state.Stats.Total()
	for _, relationshipType := range profiles.RelationshipTypes {
		scopedProfiles := state.ProfilesOfType(relationshipType)
		copyText := sectionCopyByType[relationshipType]
		progress := actionqueue.Measure(scopedProfiles)
		viewModel.Sections = append(viewModel.Sections, sectionViewModel{
			ID:        string(relationshipType),
			Title:     copyText.Title,
			Summary:   copyText.Summary,
			Progress:  progress,
			NextBatch: progress.NextBatchSize(viewModel.BatchSize),
			Profiles:  scopedProfiles,
		})
	}
	return viewModel
}
