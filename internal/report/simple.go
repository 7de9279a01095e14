package report

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/webmirror/internal/stats"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounters(&sb, summary)
	w.writeStatusCodes(&sb, summary)
	w.writeServers(&sb, summary)
	w.writeFooter(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header with seed and timing information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WEBMIRROR SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:   %s\n", summary.Seed))
	sb.WriteString(fmt.Sprintf("Output:     %s\n", summary.OutputDir))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.Started.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", summary.Elapsed().Round(10*time.Millisecond)))

	if summary.Interrupted {
		sb.WriteString("Status:     INTERRUPTED (partial mirror)\n")
	} else {
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")
}

// writeCounters writes the request and storage counters.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TRANSFER\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	value, unit := stats.ConvertBytes(summary.Bytes)
	sb.WriteString(fmt.Sprintf("  Requests:  %d\n", summary.Requests))
	sb.WriteString(fmt.Sprintf("  Files:     %d\n", summary.Files))
	sb.WriteString(fmt.Sprintf("  Stored:    %.1f %s\n", value, unit))
	sb.WriteString("\n")
}

// writeStatusCodes writes the per-status response tally.
func (w *SimpleWriter) writeStatusCodes(sb *strings.Builder, summary *Summary) {
	if len(summary.StatusCodes) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESPONSES BY STATUS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, code := range summary.SortedStatusCodes() {
		label := http.StatusText(code)
		if code == 0 {
			label = "transport failure"
		}
		sb.WriteString(fmt.Sprintf("  %3d %-24s %d\n", code, label, summary.StatusCodes[code]))
	}
	sb.WriteString("\n")
}

// writeServers writes the per-server response tally.
func (w *SimpleWriter) writeServers(sb *strings.Builder, summary *Summary) {
	if len(summary.Servers) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESPONSES BY SERVER\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, server := range summary.SortedServers() {
		sb.WriteString(fmt.Sprintf("  %-40s %d\n", server, summary.Servers[server]))
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, summary *Summary) {
	if summary.ArchivePath != "" {
		sb.WriteString(fmt.Sprintf("Archive written to %s\n", summary.ArchivePath))
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
