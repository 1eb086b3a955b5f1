// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdiddy/libgrab/pkg/types"
)

// maxNameLen bounds the filename stem; some filesystems cap names at 255
// bytes and titles can run long.
const maxNameLen = 150

// Filename derives the output filename for a committed download. A
// filename declared in Content-Disposition wins, with its extension
// forced to the candidate's format; otherwise the name is built from
// title and author. Either way the result is safe for the filesystem.
func Filename(cand types.Candidate, header http.Header) string {
	ext := extensionFor(cand.Format)

	if disposition := header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if declared := params["filename"]; declared != "" {
				stem := strings.TrimSuffix(declared, filepath.Ext(declared))
				if clean := Sanitize(stem); clean != "" {
					return clean + ext
				}
			}
		}
	}

	stem := cand.Title
	if cand.Author != "" && cand.Author != types.Unknown {
		stem += " - " + cand.Author
	}
	if clean := Sanitize(stem); clean != "" {
		return clean + ext
	}
	return Sanitize(cand.ID) + ext
}

// extensionFor maps a format to its file extension. Unknown formats get
// a neutral extension rather than a guessed one.
func extensionFor(format string) string {
	if format == "" || format == types.Unknown {
		return ".bin"
	}
	return "." + format
}

// Sanitize strips characters that are unsafe in filenames, collapses
// whitespace, and bounds the length.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || strings.ContainsRune(`\/*?:"<>|`, r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	clean := strings.Join(strings.Fields(b.String()), " ")
	clean = strings.Trim(clean, ". ")

	if len(clean) > maxNameLen {
		runes := []rune(clean)
		if len(runes) > maxNameLen {
			runes = runes[:maxNameLen]
		}
		clean = strings.TrimRight(string(runes), ". ")
	}
	return clean
}
