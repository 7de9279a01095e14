package report

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/webmirror/internal/stats"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeStatusCodes(md, summary)
	w.writeServers(md, summary)
	w.writeFooter(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the run header with seed and transfer information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Webmirror Summary")
	md.PlainText("")

	value, unit := stats.ConvertBytes(summary.Bytes)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + summary.Seed + "`"},
			{"Output", "`" + summary.OutputDir + "`"},
			{"Started", summary.Started.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed().String()},
			{"Requests", strconv.Itoa(summary.Requests)},
			{"Files", strconv.Itoa(summary.Files)},
			{"Stored", fmt.Sprintf("%.1f %s", value, unit)},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run outcome.
func (w *MarkdownWriter) getStatusText(summary *Summary) string {
	if summary.Interrupted {
		return "⚠️ Interrupted (partial mirror)"
	}
	return "✅ Complete"
}

// writeStatusCodes writes the per-status response tally.
func (w *MarkdownWriter) writeStatusCodes(md *markdown.Markdown, summary *Summary) {
	md.H2("Responses by Status")
	md.PlainText("")

	if len(summary.StatusCodes) == 0 {
		md.PlainText("No responses recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.StatusCodes))
	for _, code := range summary.SortedStatusCodes() {
		label := http.StatusText(code)
		if code == 0 {
			label = "transport failure"
		}
		rows = append(rows, []string{
			strconv.Itoa(code),
			label,
			strconv.Itoa(summary.StatusCodes[code]),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Meaning", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, summary)
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Response Status Distribution"),
		piechart.WithShowData(true),
	)

	for _, code := range summary.SortedStatusCodes() {
		label := strconv.Itoa(code)
		if code == 0 {
			label = "failed"
		}
		chart.LabelAndIntValue(label, uint64(summary.StatusCodes[code])) //nolint:gosec // counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the overall fetch health.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *Summary) {
	var failures, errors int
	for code, count := range summary.StatusCodes {
		switch {
		case code == 0:
			failures += count
		case code >= 400:
			errors += count
		}
	}

	switch {
	case failures > 0:
		md.Warningf("%d request(s) failed at the transport level; the mirror may be incomplete.", failures)
	case errors > 0:
		md.Notef("%d request(s) returned an HTTP error status and were not stored.", errors)
	default:
		md.Tip("All requests completed successfully.")
	}
	md.PlainText("")
}

// writeServers writes the per-server response tally.
func (w *MarkdownWriter) writeServers(md *markdown.Markdown, summary *Summary) {
	md.H2("Responses by Server")
	md.PlainText("")

	if len(summary.Servers) == 0 {
		md.PlainText("No Server headers observed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Servers))
	for _, server := range summary.SortedServers() {
		rows = append(rows, []string{server, strconv.Itoa(summary.Servers[server])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Server", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the summary footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, summary *Summary) {
	if summary.ArchivePath != "" {
		md.PlainTextf("Archive written to `%s`.", summary.ArchivePath)
		md.PlainText("")
	}
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [webmirror](https://github.com/nao1215/webmirror)*")
}
