package filters

import "github.com/pixbake/pngopt/internal/workpool"

// Strategy selects a filter type for every row of an image (spec §4.5).
// Basic strategies use the same filter for every row; MinSum/Entropy/
// Bigrad are adaptive, choosing per-row.
type Strategy struct {
	// Kind selects the strategy family. Basic uses Fixed for every row.
	Kind StrategyKind
	// Fixed is the filter type used when Kind == Basic.
	Fixed RowFilter
}

type StrategyKind uint8

const (
	Basic StrategyKind = iota
	MinSum
	Entropy
	Bigrad
)

func (s Strategy) String() string {
	switch s.Kind {
	case Basic:
		return Fixed(s.Fixed).String()
	case MinSum:
		return "MinSum"
	case Entropy:
		return "Entropy"
	case Bigrad:
		return "Bigrad"
	}
	return "Unknown"
}

// Fixed is a convenience alias so Strategy{Kind: Basic, Fixed: f}.String()
// reads as the filter name.
type Fixed RowFilter

func (f Fixed) String() string { return RowFilter(f).String() }

// ApplyImage filters every row of rows (each the unfiltered scanline
// bytes) using the strategy, returning the concatenated filtered bytes
// (each row prefixed with its one-byte filter-type tag) and the chosen
// filter for each row.
//
// A row's filter score only ever depends on that row's own raw bytes and
// the *raw* bytes of the row above it (never on what filter the row
// above chose), so unlike filtered-byte emission, per-row scoring for
// the adaptive strategies has no sequential dependency and is scored
// across workpool.RunStripes row stripes. Basic stays a single pass:
// every row uses the same fixed filter, so there is nothing to score.
func ApplyImage(strategy Strategy, rows [][]byte, bpp int) (out []byte, chosen []RowFilter) {
	chosen = make([]RowFilter, len(rows))

	if strategy.Kind == Basic {
		var scratch []byte
		var prev []byte
		for y, row := range rows {
			if prev == nil {
				prev = make([]byte, len(row))
			}
			scratch = Filter(strategy.Fixed, row, prev, bpp, scratch)
			chosen[y] = strategy.Fixed
			out = append(out, byte(strategy.Fixed))
			out = append(out, scratch...)
			prev = row
		}
		return out, chosen
	}

	filteredRows := make([][]byte, len(rows))
	workpool.RunStripes(len(rows), 0, func(start, end int) {
		var scratch, best []byte
		for y := start; y < end; y++ {
			row := rows[y]
			var prev []byte
			if y == 0 {
				prev = make([]byte, len(row))
			} else {
				prev = rows[y-1]
			}
			f, filtered := chooseRow(strategy, row, prev, bpp, &scratch, &best)
			chosen[y] = f
			filteredRows[y] = filtered
		}
	})

	for y, filtered := range filteredRows {
		out = append(out, byte(chosen[y]))
		out = append(out, filtered...)
	}
	return out, chosen
}

// chooseRow picks (and applies) the filter for one row under strategy.
func chooseRow(strategy Strategy, row, prev []byte, bpp int, scratch, best *[]byte) (RowFilter, []byte) {
	switch strategy.Kind {
	case Basic:
		*best = Filter(strategy.Fixed, row, prev, bpp, *best)
		return strategy.Fixed, append([]byte(nil), (*best)...)
	case MinSum:
		return chooseByScore(row, prev, bpp, scratch, best, func(filtered []byte, bestScore int) int {
			return sumAbs(filtered, bestScore)
		})
	case Entropy:
		return chooseByScore(row, prev, bpp, scratch, best, func(filtered []byte, bestScore int) int {
			return int(entropy(filtered))
		})
	case Bigrad:
		// Genuinely exhaustive: try all five, keep the smallest resulting
		// byte count (ties broken by fewer distinct bigrams), matching
		// spec §9's note that an exhaustive per-row choice is valid only
		// because filter choice is scored independently per row.
		var bestFilter RowFilter
		var bestBytes []byte
		bestLen := -1
		bestBigrams := -1
		for _, f := range All {
			*scratch = Filter(f, row, prev, bpp, *scratch)
			l := len(*scratch)
			bg := bigramCount(*scratch)
			if bestLen == -1 || l < bestLen || (l == bestLen && bg < bestBigrams) {
				bestLen = l
				bestBigrams = bg
				bestFilter = f
				bestBytes = append(bestBytes[:0], (*scratch)...)
			}
		}
		return bestFilter, bestBytes
	}
	*best = Filter(None, row, prev, bpp, *best)
	return None, append([]byte(nil), (*best)...)
}

// chooseByScore tries all five filters and keeps the one minimizing
// score(filtered, currentBest), with an early-exit contract that score
// implementations may honor (sumAbs does).
func chooseByScore(row, prev []byte, bpp int, scratch, best *[]byte, score func([]byte, int) int) (RowFilter, []byte) {
	bestScore := int(^uint(0) >> 1) // max int
	var bestFilter RowFilter
	var bestBytes []byte
	for _, f := range All {
		*scratch = Filter(f, row, prev, bpp, *scratch)
		s := score(*scratch, bestScore)
		if s < bestScore {
			bestScore = s
			bestFilter = f
			bestBytes = append(bestBytes[:0], (*scratch)...)
		}
	}
	return bestFilter, bestBytes
}
