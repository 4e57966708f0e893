package report

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hvirtan/reportpipe/internal/store"
)

type summaryJSON struct {
	Pipeline    string           `json:"pipeline"`
	GeneratedAt time.Time        `json:"generatedAt"`
	AgentCount  int              `json:"agentCount"`
	BlockCount  int              `json:"blockCount"`
	Sections    []summarySection `json:"sections"`
}

type summarySection struct {
	Agent   string `json:"agent"`
	Content string `json:"content"`
}

type Generator struct {
	reports store.ReportStore
}

func NewGenerator(reports store.ReportStore) *Generator {
	return &Generator{reports: reports}
}

// GenerateReport extracts render blocks from every agent section,
// renders the HTML document and persists the report for the run.
func (g *Generator) GenerateReport(
	ctx context.Context,
	runID, pipelineName string,
	sections []store.AgentSection,
) (*store.Report, error) {
	generatedAt := time.Now().UTC()
	title := fmt.Sprintf("%s - %s", pipelineName, generatedAt.Format("2006-01-02"))

	blocks := make([]RenderBlock, 0)
	for _, section := range sections {
		blocks = append(blocks, ExtractBlocks(section.Output)...)
	}

	contentHTML := renderHTML(pipelineName, generatedAt, sections, blocks)

	summary := summaryJSON{
		Pipeline:    pipelineName,
		GeneratedAt: generatedAt,
		AgentCount:  len(sections),
		BlockCount:  len(blocks),
		Sections:    make([]summarySection, 0, len(sections)),
	}
	for _, section := range sections {
		summary.Sections = append(summary.Sections, summarySection{
			Agent:   section.AgentName,
			Content: section.Output,
		})
	}
	contentJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshaling report summary: %w", err)
	}
	renderBlocks, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("marshaling render blocks: %w", err)
	}

	return g.reports.CreateReport(
		ctx, runID, title, contentHTML, string(contentJSON), string(renderBlocks),
	)
}

// renderHTML builds a single dependency-free document: header, one
// section per agent, and a textual enumeration of any render blocks.
// The interactive charts only render in the dashboard.
func renderHTML(
	pipelineName string,
	generatedAt time.Time,
	sections []store.AgentSection,
	blocks []RenderBlock,
) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(pipelineName))
	sb.WriteString(`<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; color: #1a1a1a; }
h1 { border-bottom: 2px solid #ddd; padding-bottom: 0.4rem; }
section { margin: 1.5rem 0; }
pre { background: #f5f5f5; padding: 0.8rem; overflow-x: auto; }
code { background: #f5f5f5; padding: 0 0.2rem; }
.meta { color: #666; font-size: 0.9rem; }
</style>
`)
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(pipelineName))
	fmt.Fprintf(
		&sb, "<p class=\"meta\">Generated %s</p>\n",
		generatedAt.Format("2006-01-02 15:04 UTC"),
	)
	for _, section := range sections {
		sb.WriteString("<section>\n")
		fmt.Fprintf(&sb, "<h2>%s</h2>\n", html.EscapeString(section.AgentName))
		sb.WriteString(markdownToHTML(section.Output))
		sb.WriteString("</section>\n")
	}
	if len(blocks) > 0 {
		sb.WriteString("<section>\n<h2>Visualizations</h2>\n<ul>\n")
		for _, block := range blocks {
			fmt.Fprintf(
				&sb, "<li>%s: %s</li>\n",
				html.EscapeString(block.Type), html.EscapeString(block.Title),
			)
		}
		sb.WriteString("</ul>\n<p class=\"meta\">Charts render in the dashboard.</p>\n</section>\n")
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
