// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

/*
CompareIssueNumbers orders issue labels numeric first.

Every character other than digits and '.' is dropped and the longest leading
decimal prefix of what remains is parsed as the label's value (0 when there is
none). Equal values fall back to a byte-wise comparison of the original labels,
so "#10" sorts after "#2" and "Annual 1" ties with "#1" on value.

Returns -1, 0 or 1.
*/
func CompareIssueNumbers(a, b string) int {
	left, right := issueValue(a), issueValue(b)
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	}
	return strings.Compare(a, b)
}

// SortIssues sorts issues in place by [CompareIssueNumbers].
func SortIssues(issues []*Issue) {
	slices.SortFunc(issues, func(a, b *Issue) int {
		return CompareIssueNumbers(a.IssueNumber, b.IssueNumber)
	})
}

func issueValue(label string) float64 {
	var token strings.Builder
	for _, r := range label {
		if (r >= '0' && r <= '9') || r == '.' {
			token.WriteRune(r)
		}
	}

	// Longest prefix with at most one decimal point, as "1.2.3" reads 1.2.
	digits := token.String()
	end, dotSeen := 0, false
	for end < len(digits) {
		if digits[end] == '.' {
			if dotSeen {
				break
			}
			dotSeen = true
		}
		end++
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(digits[:end], "."), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return value
}
