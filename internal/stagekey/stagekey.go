// Package stagekey maps logical stage names to concrete stage keys.
//
// A base name that appears more than once in a pipeline template is
// disambiguated with a numeric suffix: the first occurrence keeps the bare
// name and later ones become BASE:2, BASE:3, and so on.
package stagekey

import (
	"sort"
	"strconv"
	"strings"

	"github.com/steveyegge/conductor/internal/types"
)

// Separator splits a base name from its attempt number.
const Separator = ":"

// Format returns the key for the n-th occurrence of base (1-based).
func Format(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + Separator + strconv.Itoa(n)
}

// Parse splits a key into its base name and occurrence number.
// Keys without a valid numeric suffix are returned whole with n=1.
func Parse(key string) (base string, n int) {
	idx := strings.LastIndex(key, Separator)
	if idx <= 0 || idx == len(key)-1 {
		return key, 1
	}
	num, err := strconv.Atoi(key[idx+1:])
	if err != nil || num < 2 {
		return key, 1
	}
	return key[:idx], num
}

// Base strips any numeric suffix from key.
func Base(key string) string {
	base, _ := Parse(key)
	return base
}

// Matches reports whether key is base itself or a numbered attempt of base.
func Matches(key, base string) bool {
	if key == base {
		return true
	}
	b, n := Parse(key)
	return n > 1 && b == base
}

// Assign numbers a list of base names in order, returning one key per entry.
func Assign(bases []string) []string {
	seen := make(map[string]int, len(bases))
	keys := make([]string, 0, len(bases))
	for _, b := range bases {
		seen[b]++
		keys = append(keys, Format(b, seen[b]))
	}
	return keys
}

// Candidates returns every key in st that belongs to base, ordered with the
// unsuffixed key first and then by ascending attempt number.
func Candidates(st *types.WorkflowState, base string) []string {
	if st == nil || st.Stages == nil {
		return nil
	}
	var out []string
	for _, key := range st.Stages.Keys() {
		if Matches(key, base) {
			out = append(out, key)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		_, ni := Parse(out[i])
		_, nj := Parse(out[j])
		return ni < nj
	})
	return out
}

// Resolve returns the key of the attempt of base that is currently live or
// about to start: an active candidate first, then a pending one. Returns ""
// when every candidate is completed or none exist.
func Resolve(st *types.WorkflowState, base string) string {
	candidates := Candidates(st, base)
	for _, want := range []types.Status{types.StatusActive, types.StatusPending} {
		for _, key := range candidates {
			if st.Stages.Get(key).Status == want {
				return key
			}
		}
	}
	return ""
}
