// Package storage writes fetched pages into the on-disk mirror tree and
// bundles the finished tree into tar, tgz, or zip archives.
//
// The tree layout mirrors the site: one directory per host, the URL path
// below it, and directory-style URLs stored as index.html. Flat mode
// collapses every path to its final segment under the host directory.
package storage
