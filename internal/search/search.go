// Package search implements the search driver (spec §4.7): it takes a
// decoded image, canonicalizes it, applies the reduction fixed point,
// branches on interlacing, and trials the Cartesian product of {image
// variant} x {filter strategy} x {DEFLATE parameter set} in parallel,
// returning the smallest result under a deterministic tie-break.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/rawdata"
	"github.com/pixbake/pngopt/internal/reduction"
	"github.com/pixbake/pngopt/internal/trial"
	"github.com/pixbake/pngopt/internal/workpool"
)

// InterlaceMode is the spec §6 Options.interlace knob.
type InterlaceMode int

const (
	InterlaceKeep InterlaceMode = iota
	InterlaceForceOff
	InterlaceForceOn
)

// ErrNoImprovement is returned when no candidate beats the original byte
// stream and Config.Force is unset (spec §4.7 step 7, §7 CannotImprove).
var ErrNoImprovement = errors.New("search: no candidate smaller than original")

// Config drives one search run. It is built by the root package from
// the public Options record, and also used directly by preset tests.
type Config struct {
	Preset      Preset
	Interlace   InterlaceMode
	Force       bool
	Workers     int
	OnCandidate func(size int) // optional progress hook
}

// Result is the winning candidate: the variant image it was trialed
// against, the filter strategy and DEFLATE parameters used, and the
// compressed bytes ready to be re-chunked into IDAT/fdAT.
type Result struct {
	Image    *pngimage.Image
	Strategy filters.Strategy
	Params   trial.Params
	Bytes    []byte
	Size     int
}

// Run executes the full search driver over one already-decoded image
// (a single still image, or one isolated APNG frame — the caller drives
// per-frame invocation for animations per spec §4.9).
func Run(ctx context.Context, original *pngimage.Image, originalSize int, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wasInterlaced := original.IsInterlaced()
	canonical := original.Clone()
	if wasInterlaced {
		pngimage.Deinterlace(canonical)
	}

	mode := cfg.Interlace
	if mode == InterlaceKeep {
		if wasInterlaced {
			mode = InterlaceForceOn
		} else {
			mode = InterlaceForceOff
		}
	}

	variants := buildVariants(canonical, cfg.Preset, mode)

	type job struct {
		rank        int
		variantIdx  int
		strategyIdx int
		params      trial.Params
	}

	var jobs []job
	rank := 0
	for vi := range variants {
		for si := range cfg.Preset.Filters {
			for _, p := range cfg.Preset.Deflate {
				jobs = append(jobs, job{rank: rank, variantIdx: vi, strategyIdx: si, params: p})
				rank++
			}
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("search: no candidates generated")
	}

	cache := newFilterCache()
	var best bestTracker
	best.size = -1 // unset; first successful result always wins

	var mu sync.Mutex
	var failures int
	var firstErr error

	workpool.Run(len(jobs), cfg.Workers, func(i int) {
		if ctx.Err() != nil {
			// The deadline or cancellation already fired: skip starting
			// any further trials rather than letting the whole matrix
			// run to completion regardless of Config.Workers' other
			// in-flight jobs.
			return
		}

		j := jobs[i]
		variant := variants[j.variantIdx]
		strategy := cfg.Preset.Filters[j.strategyIdx]

		key := filterCacheKey(j.variantIdx, strategy)
		filtered, err := cache.get(key, func() ([]byte, error) {
			return rawdata.Filter(variant, strategy)
		})
		if err != nil {
			mu.Lock()
			failures++
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return
		}

		bound := best.snapshotSize()
		if bound > 0 && len(filtered) >= bound {
			// Lower-bound prune: filtered length alone already can't
			// beat the current best, so the DEFLATE encoder never runs
			// for this candidate (spec §5 cancellation rule).
			return
		}

		result, err := trial.Compress(filtered, j.params, bound)
		if err != nil {
			if err == trial.ErrExceedsBound {
				return
			}
			mu.Lock()
			failures++
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return
		}

		if cfg.OnCandidate != nil {
			cfg.OnCandidate(result.Size)
		}

		best.update(j.rank, result.Size, result.Bytes, j.variantIdx, strategy, j.params)
	})

	if err := ctx.Err(); err != nil {
		// A deadline that fires mid-run takes priority over whatever
		// partial verdict the trials reached: the search never got to
		// consider the full candidate matrix, so even a "best" result
		// found before the deadline is not a trustworthy answer.
		return nil, err
	}

	if best.bytes == nil {
		if failures == len(jobs) && firstErr != nil {
			return nil, fmt.Errorf("search: all candidates failed: %w", firstErr)
		}
		return nil, fmt.Errorf("search: no candidate succeeded")
	}

	if !cfg.Force && best.size >= originalSize {
		return nil, ErrNoImprovement
	}

	return &Result{
		Image:    variants[best.variantIdx],
		Strategy: best.strategy,
		Params:   best.params,
		Bytes:    best.bytes,
		Size:     best.size,
	}, nil
}

// buildVariants applies the reduction fixed point and the interlacing
// branch, producing the list of image variants the candidate matrix is
// built over (spec §4.7 steps 2-3). ForceOn/ForceOff yield exactly that
// encoding for every candidate. Run resolves Keep to ForceOn or ForceOff
// from the source's interlacing before calling here; a Keep passed in
// directly is treated as ForceOff.
func buildVariants(canonical *pngimage.Image, preset Preset, mode InterlaceMode) []*pngimage.Image {
	var base []*pngimage.Image

	reduced, changed := reduction.Reduce(canonical, preset.ReductionCfg)
	base = append(base, reduced)
	if changed && preset.TryBothVariants {
		base = append(base, canonical)
	}

	var out []*pngimage.Image
	for _, img := range base {
		switch mode {
		case InterlaceForceOn:
			on := img.Clone()
			pngimage.Interlace(on)
			out = append(out, on)
		default:
			// Keep and ForceOff both leave the candidate non-interlaced
			// here: Run already deinterlaced the source up front, and Run
			// itself turns Keep on an interlaced source into ForceOn.
			out = append(out, img)
		}
	}
	return out
}

func filterCacheKey(variantIdx int, strategy filters.Strategy) string {
	return strconv.Itoa(variantIdx) + "|" + strategy.String()
}

type filterCache struct {
	mu   sync.Mutex
	once map[string]*sync.Once
	data map[string][]byte
	errs map[string]error
}

func newFilterCache() *filterCache {
	return &filterCache{
		once: make(map[string]*sync.Once),
		data: make(map[string][]byte),
		errs: make(map[string]error),
	}
}

func (c *filterCache) get(key string, compute func() ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	once, ok := c.once[key]
	if !ok {
		once = &sync.Once{}
		c.once[key] = once
	}
	c.mu.Unlock()

	once.Do(func() {
		data, err := compute()
		c.mu.Lock()
		c.data[key] = data
		c.errs[key] = err
		c.mu.Unlock()
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], c.errs[key]
}

// bestTracker is the shared (size, rank) winner, guarded by a mutex per
// spec §5's "lock-guarded update... is a legal choice" note. Ties keep
// the earliest-generated candidate, never the earliest-completed one.
type bestTracker struct {
	mu          sync.Mutex
	size        int
	rank        int
	bytes       []byte
	variantIdx  int
	strategy    filters.Strategy
	params      trial.Params
}

func (b *bestTracker) snapshotSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size < 0 {
		return 0
	}
	return b.size
}

func (b *bestTracker) update(rank, size int, bytes []byte, variantIdx int, strategy filters.Strategy, params trial.Params) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size >= 0 {
		if size > b.size {
			return
		}
		if size == b.size && rank >= b.rank {
			return
		}
	}
	b.size = size
	b.rank = rank
	b.bytes = bytes
	b.variantIdx = variantIdx
	b.strategy = strategy
	b.params = params
}
