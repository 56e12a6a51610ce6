// Package export renders a finished analysis into a standalone HTML report
// and uploads it to object storage.
package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/timmy/tiklens/internal/clock"
	"github.com/timmy/tiklens/internal/content"
	"github.com/timmy/tiklens/internal/logger"
	"github.com/timmy/tiklens/internal/storage"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ReportExporter converts sanitized analysis markdown to HTML and stores it.
type ReportExporter struct {
	md      goldmark.Markdown
	storage storage.ObjectStorage
	clock   clock.Clock
	logger  *logger.Logger
}

// NewReportExporter creates a report exporter.
// Parameters:
//   - store: destination object storage.
//   - clk: clock used to stamp reports; nil selects the system clock.
//
// Returns:
//   - *ReportExporter: initialized exporter.
func NewReportExporter(store storage.ObjectStorage, clk clock.Clock) *ReportExporter {
	if clk == nil {
		clk = clock.System()
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &ReportExporter{
		md:      md,
		storage: store,
		clock:   clk,
		logger:  logger.GetDefault().WithFields(logger.Fields{logger.FieldComponent: "export"}),
	}
}

var (
	tableRe = regexp.MustCompile(`<table>`)
	theadRe = regexp.MustCompile(`<thead>`)
	tbodyRe = regexp.MustCompile(`<tbody>`)
)

// Export renders the analysis markdown to a styled HTML document and uploads
// it under reports/<sessionID>.html.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sessionID: session identifier used as the object key.
//   - text: analysis markdown, raw or already sanitized.
//
// Returns:
//   - string: URL of the stored report.
//   - error: non-nil if rendering or the upload fails.
func (e *ReportExporter) Export(ctx context.Context, sessionID, text string) (string, error) {
	// Sanitize is idempotent, so pre-sanitized input passes through unchanged
	// and cached raw text gets the same cleanup.
	body, err := e.renderBody(content.Sanitize(text))
	if err != nil {
		return "", fmt.Errorf("failed to render report body: %w", err)
	}

	doc := e.wrapDocument(body)
	key := fmt.Sprintf("reports/%s.html", sessionID)

	reader := strings.NewReader(doc)
	if err := e.storage.Upload(ctx, key, reader, int64(len(doc)), "text/html; charset=utf-8"); err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	url := e.storage.GetURL(key)
	e.logger.WithFields(logger.Fields{
		logger.FieldSessionID: sessionID,
		"report_url":          url,
	}).Info("Report exported")
	return url, nil
}

// renderBody converts markdown to HTML and tags tables with styling classes.
func (e *ReportExporter) renderBody(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}

	out := buf.String()
	out = tableRe.ReplaceAllString(out, `<table class="analysis-table">`)
	out = theadRe.ReplaceAllString(out, `<thead class="analysis-thead">`)
	out = tbodyRe.ReplaceAllString(out, `<tbody class="analysis-tbody">`)
	return out, nil
}

// wrapDocument embeds the rendered body in a full HTML page with inline styles.
func (e *ReportExporter) wrapDocument(body string) string {
	generated := e.clock.Now().UTC().Format(time.RFC3339)
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Comment Analysis Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 860px; margin: 0 auto; padding: 32px 24px; color: #1f2328; line-height: 1.6; }
h1, h2, h3 { color: #111827; }
ul { padding-left: 1.4em; }
.analysis-table { border-collapse: collapse; width: 100%; margin: 16px 0; }
.analysis-table th, .analysis-table td { border: 1px solid #d1d5db; padding: 8px 12px; text-align: left; }
.analysis-thead { background: #f3f4f6; }
.analysis-tbody tr:nth-child(even) { background: #fafafa; }
footer { margin-top: 40px; font-size: 12px; color: #6b7280; }
</style>
</head>
<body>
`)
	sb.WriteString(body)
	sb.WriteString("\n<footer>Generated at ")
	sb.WriteString(generated)
	sb.WriteString("</footer>\n</body>\n</html>\n")
	return sb.String()
}
