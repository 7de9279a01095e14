package stats

import "time"

// Stats holds the counters accumulated over one mirror run.
// All fields are mutated only from the crawl loop's goroutine, so no
// locking is required. A reimplementation that parallelizes the crawl
// must guard these with a mutex.
type Stats struct {
	// Requests is the number of HTTP requests issued, counted once per
	// request build regardless of outcome.
	Requests int

	// Files is the number of files written to the mirror tree.
	Files int

	// Bytes is the total number of body bytes written.
	Bytes int64

	// StatusCodes tallies responses per HTTP status code.
	// Transport failures are recorded under code 0.
	StatusCodes map[int]int

	// Servers tallies responses per Server header value.
	// Responses without a Server header are not recorded.
	Servers map[string]int

	// Started and Finished bound the run.
	Started  time.Time
	Finished time.Time
}

// New returns a Stats with the tally maps initialized and the start
// timestamp set to now.
func New() *Stats {
	return &Stats{
		StatusCodes: make(map[int]int),
		Servers:     make(map[string]int),
		Started:     time.Now(),
	}
}

// CountRequest increments the request counter. Called once per request
// build, before the outcome is known.
func (s *Stats) CountRequest() {
	s.Requests++
}

// RecordResponse tallies the status code and, when present, the Server
// header of a response.
func (s *Stats) RecordResponse(statusCode int, server string) {
	s.StatusCodes[statusCode]++
	if server != "" {
		s.Servers[server]++
	}
}

// RecordStored updates the stored-file and stored-byte counters.
func (s *Stats) RecordStored(n int64) {
	s.Files++
	s.Bytes += n
}

// Finish stamps the end of the run.
func (s *Stats) Finish() {
	s.Finished = time.Now()
}

// Elapsed returns the run duration. If Finish has not been called yet,
// it measures up to now.
func (s *Stats) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// ConvertBytes converts a byte count into a human-friendly value and unit.
// Counts below 1024 stay in "bytes"; larger counts divide by 1024 per step
// through "kB", "MB", and "GB".
func ConvertBytes(n int64) (float64, string) {
	value := float64(n)
	for _, unit := range []string{"bytes", "kB", "MB"} {
		if value < 1024 {
			return value, unit
		}
		value /= 1024
	}
	return value, "GB"
}
