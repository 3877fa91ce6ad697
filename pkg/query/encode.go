package query

import (
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Separator joins query pairs in links embedded into HTML attributes.
const Separator = "&amp;"

// Reserved query parameter names understood by choices endpoints.
const (
	ParamType    = "type"
	ParamExclude = "exclude"
	ParamPopup   = "popup"
	ParamSearch  = "q"
	ParamLimit   = "limit"

	TypeChoices = "choices"
)

// Quote percent-encodes value the way a path-safe quote does: spaces become
// %20 and forward slashes are left untouched.
func Quote(value string) string {
	escaped := url.QueryEscape(value)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, "%2F", "/")
}

// Encode serialises the set as key=value pairs followed by one exclude=key
// marker per key, joined with Separator. An empty set encodes to "".
func Encode(filters FilterSet) string {
	if len(filters) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(filters)*2)
	for _, filter := range filters {
		pairs = append(pairs, html.EscapeString(filter.Key)+"="+Quote(FormatValue(filter.Value)))
	}
	for _, filter := range filters {
		pairs = append(pairs, ParamExclude+"="+html.EscapeString(filter.Key))
	}
	return strings.Join(pairs, Separator)
}

// ChoicesURL appends the choices discriminator and the encoded filters to
// base. The result is attribute-safe: base is HTML-escaped too. An empty
// base stays empty.
func ChoicesURL(base string, filters FilterSet) string {
	if base == "" {
		return ""
	}
	link := html.EscapeString(base) + "?" + ParamType + "=" + TypeChoices
	if encoded := Encode(filters); encoded != "" {
		link += Separator + encoded
	}
	return link
}

// PopupURL appends the popup marker to the HTML-escaped base. An empty base
// stays empty.
func PopupURL(base string) string {
	if base == "" {
		return ""
	}
	return html.EscapeString(base) + "?" + ParamPopup + "=1"
}

// Params is the decoded form of a choices request.
type Params struct {
	Type     string
	Filters  FilterSet
	Excluded []string
	Search   string
	Limit    int
}

// Choices reports whether the request asked for structured choice data.
func (p Params) Choices() bool {
	return p.Type == TypeChoices
}

// Applied returns the filters that should restrict results, i.e. every filter
// not named by an exclude marker.
func (p Params) Applied() FilterSet {
	return p.Filters.Without(p.Excluded...)
}

// Parse decodes a choices request query. Reserved names are pulled out and
// every remaining key becomes a filter; keys are sorted because url.Values
// does not keep order. Repeated values are joined with commas.
func Parse(values url.Values, searchParam, limitParam string) Params {
	if searchParam == "" {
		searchParam = ParamSearch
	}
	if limitParam == "" {
		limitParam = ParamLimit
	}

	params := Params{
		Type:   strings.TrimSpace(values.Get(ParamType)),
		Search: strings.TrimSpace(values.Get(searchParam)),
	}
	if raw := strings.TrimSpace(values.Get(limitParam)); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}

	seen := make(map[string]struct{})
	for _, key := range values[ParamExclude] {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		params.Excluded = append(params.Excluded, key)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		switch key {
		case ParamType, ParamExclude, ParamPopup, searchParam, limitParam:
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		params.Filters = params.Filters.Set(key, strings.Join(values[key], ","))
	}
	return params
}
