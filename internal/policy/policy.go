// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package policy filters and ranks extracted candidates under the
// operator's preference policy. A Policy is built once per run from
// validated configuration and is read-only afterwards; no package-level
// state is involved.
package policy

import (
	"fmt"
	"sort"

	"github.com/pdiddy/libgrab/pkg/types"
)

// Dimension identifies one independently filterable axis.
type Dimension int

const (
	DimContentType Dimension = iota
	DimFormat
	DimAccessType
	DimLanguage
	numDimensions
)

func (d Dimension) String() string {
	switch d {
	case DimContentType:
		return "content_type"
	case DimFormat:
		return "format"
	case DimAccessType:
		return "access_type"
	case DimLanguage:
		return "language"
	default:
		return "unknown"
	}
}

// Dimensions lists all axes in declaration order.
func Dimensions() []Dimension {
	return []Dimension{DimContentType, DimFormat, DimAccessType, DimLanguage}
}

// Policy is the immutable preference policy for one run: a
// universe/ignore-set pair per dimension plus a format priority table.
type Policy struct {
	universe [numDimensions][]string
	ignore   [numDimensions]map[string]struct{}
	priority map[string]int
}

// New validates cfg and builds a Policy. Per dimension, Allow and Ignore
// are mutually exclusive; an allow-list becomes an ignore set of the
// universe minus the allowed values. Every Allow, Ignore, and priority
// value must appear in its dimension's universe.
func New(cfg types.PolicyConfig) (*Policy, error) {
	p := &Policy{priority: make(map[string]int, len(cfg.Priorities))}

	dims := map[Dimension]types.DimensionConfig{
		DimContentType: cfg.ContentTypes,
		DimFormat:      cfg.Formats,
		DimAccessType:  cfg.AccessTypes,
		DimLanguage:    cfg.Languages,
	}

	for _, d := range Dimensions() {
		dc := dims[d]
		if len(dc.Allow) > 0 && len(dc.Ignore) > 0 {
			return nil, fmt.Errorf("%s: allow and ignore are mutually exclusive", d)
		}

		inUniverse := make(map[string]struct{}, len(dc.Universe))
		for _, v := range dc.Universe {
			if v == types.Unknown {
				return nil, fmt.Errorf("%s: %q is reserved and cannot appear in a universe", d, types.Unknown)
			}
			inUniverse[v] = struct{}{}
		}
		p.universe[d] = append([]string(nil), dc.Universe...)

		ignore := make(map[string]struct{})
		switch {
		case len(dc.Allow) > 0:
			allowed := make(map[string]struct{}, len(dc.Allow))
			for _, v := range dc.Allow {
				if _, ok := inUniverse[v]; !ok {
					return nil, fmt.Errorf("%s: allowed value %q is not in the universe", d, v)
				}
				allowed[v] = struct{}{}
			}
			for _, v := range dc.Universe {
				if _, ok := allowed[v]; !ok {
					ignore[v] = struct{}{}
				}
			}
		default:
			for _, v := range dc.Ignore {
				if _, ok := inUniverse[v]; !ok {
					return nil, fmt.Errorf("%s: ignored value %q is not in the universe", d, v)
				}
				ignore[v] = struct{}{}
			}
		}
		p.ignore[d] = ignore
	}

	formatUniverse := make(map[string]struct{}, len(cfg.Formats.Universe))
	for _, v := range cfg.Formats.Universe {
		formatUniverse[v] = struct{}{}
	}
	for format, weight := range cfg.Priorities {
		if _, ok := formatUniverse[format]; !ok {
			return nil, fmt.Errorf("priority format %q is not in the format universe", format)
		}
		if weight < 0 {
			return nil, fmt.Errorf("priority for %q is negative", format)
		}
		p.priority[format] = weight
	}

	return p, nil
}

// Ignored reports whether value is in dimension d's ignore set. The
// unknown sentinel never matches an ignore set.
func (p *Policy) Ignored(d Dimension, value string) bool {
	if value == types.Unknown {
		return false
	}
	_, ok := p.ignore[d][value]
	return ok
}

// Universe returns dimension d's universe in configured order.
func (p *Policy) Universe(d Dimension) []string {
	return p.universe[d]
}

// Priority returns the ranking weight for a format. Formats absent from
// the priority table, including the unknown sentinel, return -1 so they
// sort after every weighted format.
func (p *Policy) Priority(format string) int {
	if w, ok := p.priority[format]; ok {
		return w
	}
	return -1
}

// Partition splits dimension d's universe into kept and ignored values,
// each in universe order. The search URL builder turns these into
// include and exclude query parameters.
func (p *Policy) Partition(d Dimension) (kept, ignored []string) {
	for _, v := range p.universe[d] {
		if _, ok := p.ignore[d][v]; ok {
			ignored = append(ignored, v)
		} else {
			kept = append(kept, v)
		}
	}
	return kept, ignored
}

// Value returns candidate c's value on dimension d.
func Value(c types.Candidate, d Dimension) string {
	switch d {
	case DimContentType:
		return c.ContentType
	case DimFormat:
		return c.Format
	case DimAccessType:
		return c.AccessType
	case DimLanguage:
		return c.Language
	default:
		return types.Unknown
	}
}

// Filter drops candidates with an ignored value on any dimension. It is
// a pure function: the input slice is not modified and surviving
// candidates keep their relative order.
func Filter(candidates []types.Candidate, p *Policy) []types.Candidate {
	kept := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		dropped := false
		for _, d := range Dimensions() {
			if p.Ignored(d, Value(c, d)) {
				dropped = true
				break
			}
		}
		if !dropped {
			kept = append(kept, c)
		}
	}
	return kept
}

// Rank returns candidates reordered by format priority, highest first.
// The sort is stable: equal-priority candidates keep their extraction
// order. Only format participates in ranking; the other dimensions act
// purely as filters. The input slice is not modified.
func Rank(candidates []types.Candidate, p *Policy) []types.Candidate {
	ranked := append([]types.Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return p.Priority(ranked[i].Format) > p.Priority(ranked[j].Format)
	})
	return ranked
}
