package sequence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Span is one contiguous run of issued numbers, inclusive on both ends.
type Span struct {
	From int64
	To   int64
}

// RangeSet is the compact record of every number issued within a variant's
// namespace: sorted, non-overlapping, non-adjacent spans. Tracking the full
// issued set (not just the maximum) is what makes gap reports possible after
// manual overrides skip numbers.
type RangeSet []Span

// Mark returns the set with [from, to] added, merging overlapping and
// adjacent spans. from > to is treated as empty.
func (rs RangeSet) Mark(from, to int64) RangeSet {
	if from > to {
		return rs
	}
	merged := make(RangeSet, 0, len(rs)+1)
	merged = append(merged, rs...)
	merged = append(merged, Span{From: from, To: to})
	sort.Slice(merged, func(i, j int) bool { return merged[i].From < merged[j].From })

	out := merged[:1]
	for _, s := range merged[1:] {
		last := &out[len(out)-1]
		if s.From <= last.To+1 {
			if s.To > last.To {
				last.To = s.To
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Contains reports whether n has been issued.
func (rs RangeSet) Contains(n int64) bool {
	i := sort.Search(len(rs), func(i int) bool { return rs[i].To >= n })
	return i < len(rs) && rs[i].From <= n
}

// Overlaps reports whether any number in [from, to] has been issued.
func (rs RangeSet) Overlaps(from, to int64) bool {
	if from > to {
		return false
	}
	i := sort.Search(len(rs), func(i int) bool { return rs[i].To >= from })
	return i < len(rs) && rs[i].From <= to
}

// Count returns the total quantity of issued numbers.
func (rs RangeSet) Count() int64 {
	var n int64
	for _, s := range rs {
		n += s.To - s.From + 1
	}
	return n
}

// Max returns the highest issued number, or 0 for an empty set.
func (rs RangeSet) Max() int64 {
	if len(rs) == 0 {
		return 0
	}
	return rs[len(rs)-1].To
}

// Gaps returns, in ascending order, every number in [1, upTo] that is not
// in the set.
func (rs RangeSet) Gaps(upTo int64) []int64 {
	gaps := []int64{}
	next := int64(1)
	for _, s := range rs {
		if next > upTo {
			break
		}
		for n := next; n < s.From && n <= upTo; n++ {
			gaps = append(gaps, n)
		}
		if s.To+1 > next {
			next = s.To + 1
		}
	}
	for n := next; n <= upTo; n++ {
		gaps = append(gaps, n)
	}
	return gaps
}

// String encodes the set in its canonical compact form, e.g. "1-24,30,32-40".
// An empty set encodes as "".
func (rs RangeSet) String() string {
	parts := make([]string, 0, len(rs))
	for _, s := range rs {
		if s.From == s.To {
			parts = append(parts, strconv.FormatInt(s.From, 10))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", s.From, s.To))
		}
	}
	return strings.Join(parts, ",")
}

// ParseRanges decodes the compact form produced by String.
func ParseRanges(s string) (RangeSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var rs RangeSet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		from, to, found := strings.Cut(part, "-")
		a, err := strconv.ParseInt(from, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		b := a
		if found {
			b, err = strconv.ParseInt(to, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", part, err)
			}
		}
		if a <= 0 || b < a {
			return nil, fmt.Errorf("range %q: bounds out of order", part)
		}
		rs = rs.Mark(a, b)
	}
	return rs, nil
}

// MarshalJSON encodes the set as its compact string form.
func (rs RangeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.String())
}

// UnmarshalJSON decodes the compact string form.
func (rs *RangeSet) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRanges(s)
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}
