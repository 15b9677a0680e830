// Package pagetitle fetches a remote page and extracts its <title>.
package pagetitle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"annotations/pkg/apperror"
	"annotations/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	DefaultTimeout = 5 * time.Second
	FallbackTitle  = "Untitled Page"

	maxPageBytes = 2 << 20
	userAgent    = "annotations-title-fetcher/1.0"
)

type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a Fetcher whose client gives up after timeout. A
// non-positive timeout selects DefaultTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// FetchTitle performs a single GET of rawURL and returns the trimmed text of
// the first <title> element, or FallbackTitle when the page has none.
func (f *Fetcher) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", apperror.Validation("URL is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", apperror.Fetch(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.Client.Do(req)
	if err != nil {
		logger.Log.Debug("Title fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", apperror.Fetch(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperror.Fetch(fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", apperror.Fetch(fmt.Errorf("failed to parse page: %w", err))
	}

	if title, ok := findTitle(doc); ok && title != "" {
		return title, nil
	}
	return FallbackTitle, nil
}

// findTitle returns the text of the first <title> element in document order.
// Titles inside inline <svg> are ignored.
func findTitle(doc *html.Node) (string, bool) {
	var title string
	var found bool

	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if found {
			return
		}
		if node.Type == html.ElementNode && node.Data == "svg" {
			return
		}
		if node.Type == html.ElementNode && node.Data == "title" {
			title = strings.TrimSpace(textOf(node))
			found = true
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}
	traverse(doc)

	return title, found
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}
