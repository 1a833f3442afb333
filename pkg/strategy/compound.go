package strategy

import (
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

// CompoundSequence assigns a compound to each stint of a plan.
type CompoundSequence []model.CompoundKind

// SequenceFilter reports whether a sequence is acceptable.
type SequenceFilter func(CompoundSequence) bool

// RequireDistinct implements the regulation rule: a race run in two or more
// stints has to use at least two different compounds.
func RequireDistinct(seq CompoundSequence) bool {
	if len(seq) < 2 {
		return true
	}
	return len(lo.Uniq(seq)) >= 2
}

// EnumerateSequences returns all k-tuples over compounds in lexicographic
// order of the input (the first position varies slowest). Tuples rejected by
// any filter are dropped.
//
//nolint:whitespace // editor/linter issue
func EnumerateSequences(
	compounds []model.CompoundKind, k int, filters ...SequenceFilter,
) []CompoundSequence {
	ret := make([]CompoundSequence, 0)
	if k == 0 {
		return append(ret, CompoundSequence{})
	}
	if len(compounds) == 0 || k < 0 {
		return ret
	}
	idx := make([]int, k)
	for {
		seq := make(CompoundSequence, k)
		for i, c := range idx {
			seq[i] = compounds[c]
		}
		if accept(seq, filters) {
			ret = append(ret, seq)
		}
		// odometer increment, last position fastest
		pos := k - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(compounds) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return ret
		}
	}
}

func accept(seq CompoundSequence, filters []SequenceFilter) bool {
	for _, f := range filters {
		if !f(seq) {
			return false
		}
	}
	return true
}

// sequenceCache memoizes the filtered sequences per stint count.
// The sets only depend on the count, not on the plan values.
type sequenceCache struct {
	compounds []model.CompoundKind
	filters   []SequenceFilter
	byLen     map[int][]CompoundSequence
}

func newSequenceCache(compounds []model.CompoundKind, filters ...SequenceFilter) *sequenceCache {
	return &sequenceCache{
		compounds: slices.Clone(compounds),
		filters:   filters,
		byLen:     make(map[int][]CompoundSequence),
	}
}

func (c *sequenceCache) get(k int) []CompoundSequence {
	if seqs, ok := c.byLen[k]; ok {
		return seqs
	}
	seqs := EnumerateSequences(c.compounds, k, c.filters...)
	c.byLen[k] = seqs
	return seqs
}
