// Package crawler implements the webmirror crawl engine.
//
// # Architecture
//
// The package is designed around the Spider type, which drives a strictly
// sequential loop: dequeue a URL from the Frontier, fetch it, process the
// response, extract and filter links if the body is HTML, then check the
// stop conditions before the next dequeue.
//
// Design decision: We implement our own crawl loop rather than using a
// third-party crawling library because:
//  1. Mirroring needs exact control over the fetch-store pipeline
//     (local-cache rewrites, store-path short circuits)
//  2. The dedup and scoping rules are deliberately specific and must not
//     drift with a library's defaults
//  3. The crawl is sequential by design; a concurrent framework would be
//     fighting the tool rather than helping it
//
// # Components
//
//   - Scope: canonicalization, allowed-domain set, and path-prefix scoping
//   - Frontier: FIFO queue with lazy dedup and per-URL referer tracking
//   - Fetcher: request construction (headers, auth, local-cache rewrite)
//     and single-GET execution
//   - Processor: response classification and the store decision
//   - ExtractLinks: HTML link extraction on golang.org/x/net/html
//   - Spider: the orchestrating loop with stop counters and jittered delay
//
// # Concurrency
//
// Everything runs on one goroutine. Shared state (seen-set, allowed
// domains, counters) is owned by the Spider and its components and touched
// only from the loop, so no locking discipline is required. Introducing
// workers would require a mutex-guarded seen-set to preserve the
// fetch-each-URL-at-most-once invariant.
package crawler
