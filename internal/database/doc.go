// Package database provides SQLite-based storage for mirror run history.
//
// Each completed crawl is saved as one run row plus one row per fetched
// page, so past runs can be listed and inspected without re-crawling.
// The database lives in the XDG data directory by default.
package database
