// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DownloadRecord holds metadata for a completed download. One record is
// written as YAML beside the file and inserted into the history store.
type DownloadRecord struct {
	// ID is the candidate id the file was retrieved for.
	ID string `json:"id" yaml:"id"`

	// Query is the search query that produced the candidate.
	Query string `json:"query" yaml:"query"`

	// Title is the book title.
	Title string `json:"title" yaml:"title"`

	// Author is the author line.
	Author string `json:"author" yaml:"author"`

	// Format is the file format (e.g. "epub").
	Format string `json:"format" yaml:"format"`

	// Language is the two-letter language code.
	Language string `json:"language" yaml:"language"`

	// ContentType classifies the work.
	ContentType string `json:"content_type" yaml:"content_type"`

	// MirrorURL is the mirror the file was delivered from.
	MirrorURL string `json:"mirror_url" yaml:"mirror_url"`

	// Path is the local filesystem path of the file.
	Path string `json:"path" yaml:"path"`

	// Bytes is the committed file size.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// RetrievedAt is when the download committed.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}
