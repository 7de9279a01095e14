// Package config provides configuration structures and utilities for
// webmirror. It defines the crawl, storage, and summary options populated
// from CLI flags, plus the optional .webmirror YAML file with per-site
// overrides such as cookies, headers, and credentials.
package config
