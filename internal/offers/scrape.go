package offers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	rePriceDecimal = regexp.MustCompile(`\$?\s*(\d+\.\d{2})`)
	rePriceInteger = regexp.MustCompile(`\$?\s*(\d+)`)
	rePriceSuffix  = regexp.MustCompile(`(?i)\s*(ea|each|lb|per lb|/lb|oz)\s*$`)
)

// htmlClient fetches and parses store pages. The Do field is swappable so
// tests never touch the network.
type htmlClient struct {
	do func(req *http.Request) (*http.Response, error)
}

func newHTMLClient(timeout time.Duration) *htmlClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &http.Client{Timeout: timeout}
	return &htmlClient{do: c.Do}
}

func (c *htmlClient) fetch(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scraperUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d fetching %s", resp.StatusCode, url)
	}
	return html.Parse(resp.Body)
}

// extractPrice pulls a dollar amount out of arbitrary card text. Unit
// suffixes are stripped first so "$1.49 ea" parses as 1.49.
func extractPrice(text string) *float64 {
	text = strings.TrimSpace(rePriceSuffix.ReplaceAllString(text, ""))
	if text == "" {
		return nil
	}
	if m := rePriceDecimal.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	if m := rePriceInteger.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	return nil
}

// nodeText flattens a subtree into space-joined text.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAll collects element nodes matching any of the given tags, capped at
// limit to bound work on huge pages.
func findAll(root *html.Node, tags []string, limit int) []*html.Node {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[t] = struct{}{}
	}
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if limit > 0 && len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode {
			if _, ok := want[n.Data]; ok {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first descendant whose tag is in tags and whose
// class attribute matches classPattern (nil matches any class).
func findFirst(root *html.Node, tags []string, classPattern *regexp.Regexp) *html.Node {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[t] = struct{}{}
	}
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			if _, ok := want[n.Data]; ok {
				if classPattern == nil || classPattern.MatchString(attrVal(n, "class")) {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// findLink returns the first anchor with an href matching hrefPattern (nil
// matches any href).
func findLink(root *html.Node, hrefPattern *regexp.Regexp) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attrVal(n, "href")
			if href != "" && (hrefPattern == nil || hrefPattern.MatchString(href)) {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
