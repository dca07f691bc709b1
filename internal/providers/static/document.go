package static

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize caps how much of a page is parsed
const MaxHTMLSize = 10 * 1024 * 1024

// frameSelector matches embedded documents in source order
const frameSelector = "iframe[src], frame[src]"

// DetectCharset guesses the charset of data, defaulting to utf-8
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Charset == "" {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// ParseDocument decodes body to UTF-8 and parses it. A charset declared in
// contentType wins over detection.
func ParseDocument(body []byte, contentType string) (*goquery.Document, error) {
	if len(body) > MaxHTMLSize {
		body = body[:MaxHTMLSize]
	}

	if !declaresCharset(contentType) {
		contentType = "text/html; charset=" + DetectCharset(body)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return goquery.NewDocumentFromReader(bytes.NewReader(body))
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// FrameSources returns the absolute src of every iframe and frame in
// document order, resolved against the document's base URL.
func FrameSources(doc *goquery.Document, pageURL *url.URL) []string {
	base := documentBase(doc, pageURL)

	var sources []string
	doc.Find(frameSelector).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if abs := resolveURL(strings.TrimSpace(src), base); abs != "" {
			sources = append(sources, abs)
		}
	})
	return sources
}

// documentBase honours <base href>, falling back to the page URL
func documentBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	return pageURL.ResolveReference(parsed)
}

// resolveURL converts href to an absolute URL, dropping script and data URLs
func resolveURL(href string, base *url.URL) string {
	if href == "" {
		return ""
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "vbscript:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// IsHTML reports whether a response is a markup document. A declared HTML
// type is trusted; anything else is sniffed from the body.
func IsHTML(body []byte, contentType string) bool {
	if media, _, err := mime.ParseMediaType(contentType); err == nil {
		switch media {
		case "text/html", "application/xhtml+xml":
			return true
		}
	}
	detected := mimetype.Detect(body)
	return detected.Is("text/html") || detected.Is("application/xhtml+xml")
}

func declaresCharset(contentType string) bool {
	if contentType == "" {
		return false
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return params["charset"] != ""
}
