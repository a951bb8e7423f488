package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// PageMetadata is the cached page preview stored alongside a link.
type PageMetadata struct {
	Title       string
	Description string
	Image       string
}

// MetadataFetcher retrieves preview metadata for a destination page. The
// registry calls it best-effort on update; implementations must be
// time-bounded.
type MetadataFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*PageMetadata, error)
}

const (
	metadataTimeout   = 5 * time.Second
	metadataUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type httpMetadataFetcher struct {
	client *http.Client
}

// NewMetadataFetcher returns a fetcher that scrapes Open Graph and plain
// HTML metadata with a hard timeout.
func NewMetadataFetcher() MetadataFetcher {
	return &httpMetadataFetcher{
		client: &http.Client{Timeout: metadataTimeout},
	}
}

func (f *httpMetadataFetcher) Fetch(ctx context.Context, pageURL string) (*PageMetadata, error) {
	reqCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	// Some sites refuse requests without a browser user agent.
	req.Header.Set("User-Agent", metadataUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return extractMetadata(doc), nil
}

// extractMetadata walks the document once, collecting meta tags and the
// <title> text, then picks each field by preference order: og:* first,
// plain meta names second.
func extractMetadata(doc *html.Node) *PageMetadata {
	metas := map[string]string{}
	var title string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var key, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property", "name":
						key = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if key != "" && content != "" {
					if _, seen := metas[key]; !seen {
						metas[key] = content
					}
				}
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return &PageMetadata{
		Title:       firstOf(metas["og:title"], title, metas["title"]),
		Description: firstOf(metas["og:description"], metas["description"]),
		Image:       firstOf(metas["og:image"], metas["og:image:url"]),
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
