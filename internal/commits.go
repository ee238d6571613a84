package internal

import (
	"regexp"
	"sort"
)

// Commits is an ordered collection of commit records. All query operations
// are pure: they return new collections and never mutate the receiver.
type Commits []*Commit

// Group is one bucket of a grouped collection. Key is the shared attribute
// value; a nil Key holds the commits where the attribute is null.
type Group struct {
	Key     any
	Commits Commits
}

// GroupOptions control key ordering when grouping. When both sort flags are
// set, descending wins. Sorted keys place the null key last unless an
// explicit placement flag says otherwise.
type GroupOptions struct {
	AscendingKeys  bool
	DescendingKeys bool
	NoneKeyFirst   bool
	NoneKeyLast    bool
}

// attrValue normalizes attribute values for comparison. Tags compare by
// name so that independently resolved markers for the same tag are equal,
// and a missing tag compares equal to nil.
func attrValue(v any) any {
	if t, ok := v.(*Tag); ok {
		if t == nil {
			return nil
		}
		return t.Name()
	}
	return v
}

func attrEqual(a, b any) bool {
	return attrValue(a) == attrValue(b)
}

// Filter keeps the commits whose attribute equals value exactly. A nil
// value matches commits where the attribute is null.
func (cs Commits) Filter(attr string, value any) (Commits, error) {
	var out Commits
	for _, c := range cs {
		v, err := c.Attr(attr)
		if err != nil {
			return nil, err
		}
		if attrEqual(v, value) {
			out = append(out, c)
		}
	}
	return out, nil
}

// FilterMatch keeps the commits whose attribute, as a string, matches the
// pattern anchored at the start. Non-string attributes never match.
func (cs Commits) FilterMatch(attr, pattern string) (Commits, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var out Commits
	for _, c := range cs {
		v, err := c.Attr(attr)
		if err != nil {
			return nil, err
		}
		if matchesStringAtStart(re, attrValue(v)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Exclude is the exact complement of Filter with the same arguments.
func (cs Commits) Exclude(attr string, value any) (Commits, error) {
	var out Commits
	for _, c := range cs {
		v, err := c.Attr(attr)
		if err != nil {
			return nil, err
		}
		if !attrEqual(v, value) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ExcludeMatch is the exact complement of FilterMatch.
func (cs Commits) ExcludeMatch(attr, pattern string) (Commits, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var out Commits
	for _, c := range cs {
		v, err := c.Attr(attr)
		if err != nil {
			return nil, err
		}
		if !matchesStringAtStart(re, attrValue(v)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Group buckets the commits by an attribute, keys in first-seen order.
func (cs Commits) Group(attr string) ([]Group, error) {
	return cs.GroupBy(attr, GroupOptions{})
}

// GroupBy buckets the commits by an attribute with explicit key ordering.
// Each bucket is exactly Filter(attr, key), so membership and ordering
// inside a bucket follow the filter semantics.
func (cs Commits) GroupBy(attr string, opts GroupOptions) ([]Group, error) {
	if (opts.AscendingKeys || opts.DescendingKeys) && !opts.NoneKeyFirst && !opts.NoneKeyLast {
		opts.NoneKeyLast = true
	}

	var keys []any
	for _, c := range cs {
		v, err := c.Attr(attr)
		if err != nil {
			return nil, err
		}
		if !containsKey(keys, v) {
			keys = append(keys, v)
		}
	}

	if opts.AscendingKeys || opts.DescendingKeys {
		keys = sortKeys(keys, opts.DescendingKeys)
	}

	if opts.NoneKeyFirst || opts.NoneKeyLast {
		keys = placeNoneKey(keys, opts.NoneKeyFirst)
	}

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		bucket, err := cs.Filter(attr, key)
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{Key: key, Commits: bucket})
	}
	return groups, nil
}

func containsKey(keys []any, v any) bool {
	for _, k := range keys {
		if attrEqual(k, v) {
			return true
		}
	}
	return false
}

// sortKeys sorts non-null keys by their string form and appends the null
// key, if present, at the end.
func sortKeys(keys []any, descending bool) []any {
	var sorted []any
	hasNone := false
	for _, k := range keys {
		if attrValue(k) == nil {
			hasNone = true
			continue
		}
		sorted = append(sorted, k)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := keyString(sorted[i]), keyString(sorted[j])
		if descending {
			return a > b
		}
		return a < b
	})

	if hasNone {
		sorted = append(sorted, nil)
	}
	return sorted
}

// placeNoneKey relocates the null key, when present, to the front or back.
func placeNoneKey(keys []any, first bool) []any {
	var out []any
	hasNone := false
	for _, k := range keys {
		if attrValue(k) == nil {
			hasNone = true
			continue
		}
		out = append(out, k)
	}
	if !hasNone {
		return keys
	}
	if first {
		return append([]any{nil}, out...)
	}
	return append(out, nil)
}

func keyString(v any) string {
	return valueString(attrValue(v))
}

func matchesStringAtStart(re *regexp.Regexp, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}
