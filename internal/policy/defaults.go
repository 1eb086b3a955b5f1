// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import "github.com/pdiddy/libgrab/pkg/types"

// DefaultConfig returns the built-in preference policy: English fiction
// in reader formats, delivered from partner servers, preferring EPUB
// over PDF over MOBI. A config file or flags override any of it.
func DefaultConfig() types.PolicyConfig {
	return types.PolicyConfig{
		ContentTypes: types.DimensionConfig{
			Universe: []string{
				"book_fiction", "book_nonfiction", "book_unknown",
				"magazine", "book_comic", "standards_document",
				"musical_score", "other",
			},
			Allow: []string{"book_fiction"},
		},
		Formats: types.DimensionConfig{
			Universe: []string{"epub", "pdf", "mobi", "azw3", "fb2", "djvu", "cbr"},
			Allow:    []string{"epub", "pdf", "mobi"},
		},
		AccessTypes: types.DimensionConfig{
			Universe: []string{
				"direct_download", "external_download",
				"external_borrow", "external_borrow_printdisabled",
				"torrents_available",
			},
			Allow: []string{"direct_download"},
		},
		Languages: types.DimensionConfig{
			Universe: []string{"en", "zh", "ru", "es", "fr", "de", "it", "pt", "pl", "nl"},
			Allow:    []string{"en"},
		},
		Priorities: map[string]int{
			"epub": 100,
			"pdf":  80,
			"mobi": 60,
		},
	}
}
