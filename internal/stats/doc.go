// Package stats collects counters for a single mirror run.
// The crawl loop and storage writer mutate the counters from the single
// control goroutine; readers consume them once the run has finished.
package stats
