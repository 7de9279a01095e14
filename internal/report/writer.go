package report

import (
	"io"
	"sort"
	"time"

	"github.com/nao1215/webmirror/internal/stats"
)

// Summary describes the outcome of one mirror run.
type Summary struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// OutputDir is the directory the mirror tree was written under.
	OutputDir string `json:"output_dir"`

	// Started and Finished bound the run.
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Requests is the number of HTTP requests issued.
	Requests int `json:"requests"`

	// Files is the number of files written to the mirror tree.
	Files int `json:"files"`

	// Bytes is the total number of body bytes written.
	Bytes int64 `json:"bytes"`

	// StatusCodes tallies responses per HTTP status code.
	// Transport failures appear under code 0.
	StatusCodes map[int]int `json:"status_codes"`

	// Servers tallies responses per Server header value.
	Servers map[string]int `json:"servers"`

	// ArchivePath is the archive written after the crawl, "" when none.
	ArchivePath string `json:"archive_path,omitempty"`

	// Interrupted is true when the run was cut short by a signal.
	Interrupted bool `json:"interrupted"`
}

// NewSummary builds a Summary from run configuration and counters.
func NewSummary(seed, outputDir string, st *stats.Stats) *Summary {
	return &Summary{
		Seed:        seed,
		OutputDir:   outputDir,
		Started:     st.Started,
		Finished:    st.Finished,
		Requests:    st.Requests,
		Files:       st.Files,
		Bytes:       st.Bytes,
		StatusCodes: st.StatusCodes,
		Servers:     st.Servers,
	}
}

// Elapsed returns the run duration.
func (s *Summary) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}

// SortedStatusCodes returns the tallied status codes in ascending order.
// Output formats iterate this instead of the map so runs are
// reproducible.
func (s *Summary) SortedStatusCodes() []int {
	codes := make([]int, 0, len(s.StatusCodes))
	for code := range s.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// SortedServers returns the tallied Server header values sorted.
func (s *Summary) SortedServers() []string {
	servers := make([]string, 0, len(s.Servers))
	for server := range s.Servers {
		servers = append(servers, server)
	}
	sort.Strings(servers)
	return servers
}

// Writer defines the interface for summary output.
// Implementations write run summaries in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write summaries, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
