package crawler

// Frontier is the FIFO queue of URLs waiting to be fetched, together
// with the visit bookkeeping that guarantees each canonical URL is
// fetched at most once per crawl.
//
// Enqueue never deduplicates: the same URL may sit in the queue several
// times. Duplicates are discarded lazily at Dequeue time instead, so the
// queue length is an upper bound on pending work, not an exact count.
type Frontier struct {
	queue []string

	// seen maps canonical URL strings to the number of times they were
	// dequeued or otherwise marked. A nonzero count means the URL must
	// not be fetched again.
	seen map[string]int

	// referers records which page linked to each queued URL. When
	// multiple pages link to the same URL the last writer wins.
	referers map[string]string
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen:     make(map[string]int),
		referers: make(map[string]string),
	}
}

// Enqueue appends URLs to the back of the queue and records referer as
// the linking page for each. URLs already seen or already queued are
// appended anyway; Dequeue filters them out.
func (f *Frontier) Enqueue(referer string, urls ...string) {
	for _, u := range urls {
		f.queue = append(f.queue, u)
		if referer != "" {
			f.referers[u] = referer
		}
	}
}

// Dequeue pops the next URL that has not been fetched yet, skipping over
// entries that were marked seen while they sat in the queue. The
// returned URL is marked seen before it is handed out. The second return
// value is false when the queue is exhausted.
func (f *Frontier) Dequeue() (string, bool) {
	for len(f.queue) > 0 {
		u := f.queue[0]
		f.queue = f.queue[1:]
		if f.seen[u] > 0 {
			continue
		}
		f.seen[u]++
		return u, true
	}
	return "", false
}

// MarkSeen increments the visit count for a canonical URL. It is called
// for final URLs after redirects so that a page reached under two names
// is processed once.
func (f *Frontier) MarkSeen(u string) {
	f.seen[u]++
}

// Seen reports whether a canonical URL has been fetched or marked.
func (f *Frontier) Seen(u string) bool {
	return f.seen[u] > 0
}

// SeenCount returns the visit count for a canonical URL.
func (f *Frontier) SeenCount(u string) int {
	return f.seen[u]
}

// Referer returns the page that linked to u, or "" when none was
// recorded.
func (f *Frontier) Referer(u string) string {
	return f.referers[u]
}

// Len returns the number of queued entries, including duplicates that
// Dequeue will later skip.
func (f *Frontier) Len() int {
	return len(f.queue)
}
