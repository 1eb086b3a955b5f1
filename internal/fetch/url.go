// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/url"
	"strings"

	"github.com/pdiddy/libgrab/internal/policy"
)

// antiPrefix marks an excluded value in the index's query syntax.
const antiPrefix = "anti__"

// dimensionParams maps each policy dimension to its index query parameter.
var dimensionParams = map[policy.Dimension]string{
	policy.DimContentType: "content",
	policy.DimFormat:      "ext",
	policy.DimAccessType:  "acc",
	policy.DimLanguage:    "lang",
}

// SearchURL builds the index search URL for query under the policy.
// Every universe value appears once per dimension: kept values as
// "param=value", ignored values as "param=anti__value". Pushing the
// ignore sets into the query keeps result pages dense, but the local
// filter still applies — the index is not trusted to enforce policy.
func SearchURL(base, query string, p *policy.Policy) string {
	v := url.Values{}
	v.Set("index", "")
	v.Set("page", "1")
	v.Set("q", query)
	v.Set("display", "")
	v.Set("sort", "")

	for _, d := range policy.Dimensions() {
		param := dimensionParams[d]
		kept, ignored := p.Partition(d)
		for _, value := range kept {
			v.Add(param, value)
		}
		for _, value := range ignored {
			v.Add(param, antiPrefix+value)
		}
	}

	return strings.TrimRight(base, "/") + "/search?" + v.Encode()
}
