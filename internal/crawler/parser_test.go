package crawler

import (
	"net/url"
	"testing"
)

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("http://example.com/blog/")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("collects link-bearing elements", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><head>
			<link href="/style.css" rel="stylesheet">
			<script src="/app.js"></script>
		</head><body>
			<a href="post1.html">post</a>
			<area href="/map">
			<img src="logo.png">
			<iframe src="/embed"></iframe>
			<frame src="/frame">
			<p>no link here</p>
		</body></html>`)

		links, err := ExtractLinks(base, body, "text/html; charset=utf-8")
		if err != nil {
			t.Fatal(err)
		}

		want := map[string]bool{
			"http://example.com/style.css":       true,
			"http://example.com/app.js":          true,
			"http://example.com/blog/post1.html": true,
			"http://example.com/map":             true,
			"http://example.com/blog/logo.png":   true,
			"http://example.com/embed":           true,
			"http://example.com/frame":           true,
		}

		got := make(map[string]bool, len(links))
		for _, l := range links {
			got[l.String()] = true
		}

		for u := range want {
			if !got[u] {
				t.Errorf("missing link %q", u)
			}
		}
		for u := range got {
			if !want[u] {
				t.Errorf("unexpected link %q", u)
			}
		}
	})

	t.Run("resolves relative against base", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<a href="../about">about</a>`)
		links, err := ExtractLinks(base, body, "text/html")
		if err != nil {
			t.Fatal(err)
		}

		if len(links) != 1 {
			t.Fatalf("got %d links, want 1", len(links))
		}
		if got := links[0].String(); got != "http://example.com/about" {
			t.Errorf("resolved = %q, want http://example.com/about", got)
		}
	})

	t.Run("absolute links kept as-is", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<a href="http://other.example.org/page">off-site</a>`)
		links, err := ExtractLinks(base, body, "text/html")
		if err != nil {
			t.Fatal(err)
		}

		if len(links) != 1 || links[0].String() != "http://other.example.org/page" {
			t.Errorf("links = %v, want the absolute off-site URL", links)
		}
	})

	t.Run("empty href skipped", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<a href="">empty</a><a>none</a>`)
		links, err := ExtractLinks(base, body, "text/html")
		if err != nil {
			t.Fatal(err)
		}

		if len(links) != 0 {
			t.Errorf("got %d links, want 0", len(links))
		}
	})

	t.Run("javascript links are extracted for the scope filter to drop", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<a href="javascript:void(0)">click</a>`)
		links, err := ExtractLinks(base, body, "text/html")
		if err != nil {
			t.Fatal(err)
		}

		if len(links) != 1 {
			t.Fatalf("got %d links, want 1", len(links))
		}

		s := NewScope("/")
		s.RegisterDomain("example.com")
		if s.IsInScope(links[0]) {
			t.Error("javascript pseudo link must not pass the scope filter")
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		// "café" in ISO-8859-1: the é is a single 0xE9 byte.
		body := []byte("<html><body><a href=\"caf\xe9.html\">caf\xe9</a></body></html>")
		links, err := ExtractLinks(base, body, "text/html; charset=iso-8859-1")
		if err != nil {
			t.Fatal(err)
		}

		if len(links) != 1 {
			t.Fatalf("got %d links, want 1", len(links))
		}
		if got := links[0].Path; got != "/blog/café.html" {
			t.Errorf("decoded path = %q, want /blog/café.html", got)
		}
	})
}
