// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/libgrab/pkg/types"
)

// NoMirrorError reports a detail page exposing zero mirrors. It is
// fatal for that candidate; whether the run falls back to the next
// ranked candidate is the caller's explicit choice.
type NoMirrorError struct {
	CandidateID string
	URL         string
}

func (e *NoMirrorError) Error() string {
	return fmt.Sprintf("no mirrors on %s for candidate %s", e.URL, e.CandidateID)
}

// Download link path prefixes on the detail page. Fast partner servers
// stream immediately; slow partner servers queue but still deliver
// without leaving the site.
const (
	fastPrefix = "/fast_download/"
	slowPrefix = "/slow_download/"
)

// slowRankOffset orders every slow partner server after every fast one
// while preserving the declared order within each group.
const slowRankOffset = 100

// declaredRank matches the "#N" suffix in link labels like
// "Fast Partner Server #2".
var declaredRank = regexp.MustCompile(`#(\d+)`)

// Mirrors parses a candidate's detail page into its ordered mirror list:
// partner servers by declared speed first, external mirrors last.
// External mirrors need manual off-site steps, so they only matter when
// every partner server is gone.
func Mirrors(raw, pageURL, candidateID string) ([]types.MirrorLink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: fmt.Sprintf("bad page URL: %v", err)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: fmt.Sprintf("unreadable HTML: %v", err)}
	}

	var mirrors []types.MirrorLink
	seen := make(map[string]struct{})

	doc.Find("ul li a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		label := collapse(s.Text())

		m, ok := classifyMirror(href, label, base)
		if !ok {
			return
		}
		if _, dup := seen[m.URL]; dup {
			return
		}
		seen[m.URL] = struct{}{}
		mirrors = append(mirrors, m)
	})

	if len(mirrors) == 0 {
		return nil, &NoMirrorError{CandidateID: candidateID, URL: pageURL}
	}

	sort.SliceStable(mirrors, func(i, j int) bool {
		if mirrors[i].Kind != mirrors[j].Kind {
			return mirrors[i].Kind == types.MirrorDirect
		}
		return mirrors[i].Rank < mirrors[j].Rank
	})
	return mirrors, nil
}

// classifyMirror turns one download-list anchor into a MirrorLink.
// Anchors that are neither partner download links nor absolute external
// links are not mirrors.
func classifyMirror(href, label string, base *url.URL) (types.MirrorLink, bool) {
	switch {
	case strings.HasPrefix(href, fastPrefix):
		return types.MirrorLink{
			URL:   resolve(base, href),
			Rank:  rankFromLabel(label),
			Kind:  types.MirrorDirect,
			Label: label,
		}, true

	case strings.HasPrefix(href, slowPrefix):
		return types.MirrorLink{
			URL:   resolve(base, href),
			Rank:  slowRankOffset + rankFromLabel(label),
			Kind:  types.MirrorDirect,
			Label: label,
		}, true

	case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
		u, err := url.Parse(href)
		if err != nil || u.Host == base.Host {
			return types.MirrorLink{}, false
		}
		return types.MirrorLink{
			URL:   href,
			Rank:  rankFromLabel(label),
			Kind:  types.MirrorExternal,
			Label: label,
		}, true
	}
	return types.MirrorLink{}, false
}

// rankFromLabel reads the declared "#N" rank; unlabelled links rank
// after every labelled one.
func rankFromLabel(label string) int {
	if m := declaredRank.FindStringSubmatch(label); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return slowRankOffset - 1
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
