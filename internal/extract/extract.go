// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract parses index pages into candidates and mirror links.
// It owns all knowledge of the page markup, so a layout change touches
// nothing outside this package. Dimension values the parser cannot
// recognize become the unknown sentinel rather than being coerced into
// a known value or dropped.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/libgrab/pkg/types"
)

// ParseError reports a page whose structure the extractor does not
// recognize: no result markers at all, or markup drift. It is fatal for
// that page and never retried.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}

// detailPrefix is the path prefix of every result's detail link; the
// hash after it is the candidate id.
const detailPrefix = "/md5/"

// partialBanner is the text marking the start of the partial-match
// section on a results page.
const partialBanner = "partial matches"

// sizePattern matches a declared size segment like "1.9MB" or "950.3 KB".
var sizePattern = regexp.MustCompile(`(?i)^([\d.]+)\s*(KB|MB|GB)$`)

// langPattern matches the bracketed language code, e.g. "English [en]".
var langPattern = regexp.MustCompile(`\[([a-z]{2,3})\]`)

// formatPattern matches a file extension segment like ".epub".
var formatPattern = regexp.MustCompile(`(?i)^\.([a-z0-9]{1,5})$`)

// Results parses a search results page into candidates in page order.
// pageURL resolves relative detail links. The raw page is uncommented
// first: the index wraps lazy-loaded result rows in HTML comments, and
// partial matches live almost entirely inside them.
func Results(raw, pageURL string) ([]types.Candidate, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: fmt.Sprintf("bad page URL: %v", err)}
	}

	uncommented := strings.ReplaceAll(strings.ReplaceAll(raw, "<!--", ""), "-->", "")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(uncommented))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: fmt.Sprintf("unreadable HTML: %v", err)}
	}

	var candidates []types.Candidate
	partial := false

	// Walk banners and result links together in document order so
	// candidates below the partial-match banner are flagged.
	doc.Find(`div.italic, a[href^="` + detailPrefix + `"]`).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "div" {
			if strings.Contains(strings.ToLower(s.Text()), partialBanner) {
				partial = true
			}
			return
		}

		href, _ := s.Attr("href")
		id := strings.TrimPrefix(href, detailPrefix)
		if id == "" || id == href {
			return
		}

		c := candidateFrom(s, id, partial)
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		c.DetailURL = base.ResolveReference(ref).String()
		c.Position = len(candidates)
		candidates = append(candidates, c)
	})

	if len(candidates) == 0 {
		return nil, &ParseError{URL: pageURL, Reason: "no result entries found"}
	}
	return candidates, nil
}

// candidateFrom reads one result anchor into a Candidate.
func candidateFrom(link *goquery.Selection, id string, partial bool) types.Candidate {
	c := types.Candidate{
		ID:           id,
		Title:        types.Unknown,
		Author:       types.Unknown,
		ContentType:  types.Unknown,
		Format:       types.Unknown,
		AccessType:   types.Unknown,
		Language:     types.Unknown,
		PartialMatch: partial,
	}

	if title := collapse(link.Find("h3").First().Text()); title != "" {
		c.Title = title
	}
	if author := collapse(link.Find("div.italic").First().Text()); author != "" {
		c.Author = author
	}

	meta := link.Find(`div[class*="text-gray-500"]`).First().Text()
	parseMetaLine(meta, &c)
	return c
}

// parseMetaLine fills dimension values from the comma-separated metadata
// line under the title, e.g.
//
//	English [en], .epub, direct download, 1.9MB, Book (fiction)
//
// Segments that match nothing leave the unknown sentinel in place.
func parseMetaLine(meta string, c *types.Candidate) {
	for _, segment := range strings.Split(meta, ",") {
		segment = collapse(segment)
		if segment == "" {
			continue
		}

		if m := langPattern.FindStringSubmatch(segment); m != nil {
			c.Language = m[1]
			continue
		}
		if m := formatPattern.FindStringSubmatch(segment); m != nil {
			c.Format = strings.ToLower(m[1])
			continue
		}
		if bytes, ok := parseSize(segment); ok {
			c.SizeBytes = bytes
			continue
		}
		if access, ok := parseAccessType(segment); ok {
			c.AccessType = access
			continue
		}
		if content, ok := parseContentType(segment); ok {
			c.ContentType = content
			continue
		}
	}
}

// parseSize converts "1.9MB" style segments to bytes.
func parseSize(segment string) (int64, bool) {
	m := sizePattern.FindStringSubmatch(segment)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(m[2]) {
	case "KB":
		value *= 1 << 10
	case "MB":
		value *= 1 << 20
	case "GB":
		value *= 1 << 30
	}
	return int64(value), true
}

// parseAccessType maps a metadata segment to an access type value.
func parseAccessType(segment string) (string, bool) {
	s := strings.ToLower(segment)
	switch {
	case strings.Contains(s, "direct download") || strings.Contains(s, "aa_download") || strings.Contains(s, "partner server"):
		return "direct_download", true
	case strings.Contains(s, "external borrow") && strings.Contains(s, "print"):
		return "external_borrow_printdisabled", true
	case strings.Contains(s, "external borrow"):
		return "external_borrow", true
	case strings.Contains(s, "external download"):
		return "external_download", true
	case strings.Contains(s, "torrent"):
		return "torrents_available", true
	}
	return "", false
}

// parseContentType maps a metadata segment to a content type value.
func parseContentType(segment string) (string, bool) {
	s := strings.ToLower(segment)
	switch {
	case strings.Contains(s, "non-fiction") || strings.Contains(s, "nonfiction"):
		return "book_nonfiction", true
	case strings.Contains(s, "fiction"):
		return "book_fiction", true
	case strings.Contains(s, "comic"):
		return "book_comic", true
	case strings.Contains(s, "magazine"):
		return "magazine", true
	case strings.Contains(s, "standards"):
		return "standards_document", true
	case strings.Contains(s, "musical score"):
		return "musical_score", true
	case strings.Contains(s, "book (unknown)"):
		return "book_unknown", true
	}
	return "", false
}

// collapse trims and collapses internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
