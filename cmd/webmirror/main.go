// Package main provides the entry point for the webmirror CLI.
//
// Webmirror downloads a website into a local directory tree, following
// links within the seed URL's site, and optionally bundles the result
// into a tar, tgz, or zip archive.
//
// Usage:
//
//	webmirror mirror <seed-url>
//	webmirror history
//
// See --help for all available options.
package main

// main is the entry point for webmirror.
func main() {
	Execute()
}
