// Package reduction implements the spec §4.3 reductions table: pure,
// losslessly-reversible transformations on the canonical (non-interlaced)
// pixel grid that lower per-pixel bit cost. Each reduction is expressed
// as spec §9 suggests — a capability-set function
// `func(*pngimage.Image) (*pngimage.Image, bool)` — rather than a trait
// hierarchy; Go has no inheritance to avoid here, so this is the natural
// shape, not a workaround.
package reduction

import "github.com/pixbake/pngopt/internal/pngimage"

// Config selects which reductions are enabled, mirroring the
// corresponding Options fields (spec §6).
type Config struct {
	BitDepth   bool
	ColorType  bool
	Palette    bool
	Grayscale  bool
	Scale16    bool // allow 16->8 even when not strictly lossless
	AlphaOpt   bool // opt-in alpha cleanup
	OnReduce   func(Event)
}

// Event is reported to Config.OnReduce after a reduction fires,
// mirroring original_source/lib.rs's report_reduction hook
// (SPEC_FULL.md §C).
type Event struct {
	Name      string
	ColorType pngimage.ColorType
	BitDepth  uint8
}

// Reduce applies the enabled reduction set to a fixed point: each
// reduction is attempted in spec order (color-type reductions, then
// bit-depth reductions, then palette reductions/reorder) and the loop
// repeats until no reduction fires (spec §4.7 step 2, §4.3's ordering
// rule, §8 invariant 7 "applying twice equals applying once").
func Reduce(img *pngimage.Image, cfg Config) (*pngimage.Image, bool) {
	cur := img
	changed := false

	for {
		roundChanged := false

		if cfg.ColorType {
			for _, step := range colorTypeSteps(cfg) {
				if next, ok := step(cur); ok {
					cur = next
					roundChanged = true
					changed = true
					report(cfg, next)
				}
			}
		}

		if cfg.BitDepth {
			if next, ok := TryBitDepthDrop(cur); ok {
				cur = next
				roundChanged = true
				changed = true
				report(cfg, next)
			}
		}

		if cfg.Palette {
			if next, ok := TryPaletteDedup(cur); ok {
				cur = next
				roundChanged = true
				changed = true
				report(cfg, next)
			}
		}

		if !roundChanged {
			break
		}
	}

	if cfg.Palette {
		// Reorder always runs, once, after the fixed point settles —
		// spec §4.3 marks it "Always" rather than conditional, and
		// reordering an already-reordered palette is a no-op so it does
		// not need to participate in the fixed-point loop.
		if next, ok := TryPaletteReorder(cur); ok {
			cur = next
			changed = true
			report(cfg, next)
		}
	}

	if cfg.AlphaOpt {
		if next, ok := TryAlphaOptimize(cur); ok {
			cur = next
			changed = true
			report(cfg, next)
		}
	}

	return cur, changed
}

type reductionStep func(*pngimage.Image) (*pngimage.Image, bool)

func colorTypeSteps(cfg Config) []reductionStep {
	steps := []reductionStep{}
	if cfg.Scale16 {
		steps = append(steps, TryStrip16To8)
	} else {
		steps = append(steps, tryLossless16To8)
	}
	if cfg.Grayscale {
		steps = append(steps, TryRGBToGray, TryIndexedToGray)
	}
	steps = append(steps, TryAlphaStrip, TryRGBAToIndexed)
	return steps
}

func tryLossless16To8(img *pngimage.Image) (*pngimage.Image, bool) {
	return TryStrip16To8Strict(img)
}

func report(cfg Config, img *pngimage.Image) {
	if cfg.OnReduce == nil {
		return
	}
	cfg.OnReduce(Event{
		Name:      "reduce",
		ColorType: img.IHDR.ColorType,
		BitDepth:  img.IHDR.BitDepth,
	})
}
