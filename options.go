package pngopt

import (
	"time"

	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/policy"
	"github.com/pixbake/pngopt/internal/search"
	"github.com/pixbake/pngopt/internal/trial"
)

// Bool returns a pointer to b, for setting the *bool override fields on
// Options (e.g. opts.PaletteReduction = pngopt.Bool(false)).
func Bool(b bool) *bool {
	return &b
}

// Interlace mirrors spec §6 Options.interlace.
type Interlace int

const (
	InterlaceKeep Interlace = iota
	InterlaceForceOff
	InterlaceForceOn
)

// DeflateMethod selects which DEFLATE backend a DeflateParams value
// configures (spec §6 Options.deflate).
type DeflateMethod int

const (
	Libdeflate DeflateMethod = iota
	Zopfli
)

// DeflateParams is one DEFLATE configuration: Level applies to
// Libdeflate (1..12), Iterations applies to Zopfli (1..255).
type DeflateParams struct {
	Method     DeflateMethod
	Level      int
	Iterations int
}

// PresetLevel is the spec §6 Options.preset_level shorthand.
type PresetLevel int

const (
	Preset0 PresetLevel = 0
	Preset1 PresetLevel = 1
	Preset2 PresetLevel = 2
	Preset3 PresetLevel = 3
	Preset4 PresetLevel = 4
	Preset5 PresetLevel = 5
	Preset6 PresetLevel = 6
	PresetMax PresetLevel = 7
)

// Options is the single boundary record between callers and the engine
// (spec §6): no package-level mutable state, no hidden globals — every
// call to Optimize/OptimizeFile/OptimizeInPlace is fully parameterized
// by the Options value passed to it.
type Options struct {
	// FixErrors accepts inputs with recoverable CRC errors.
	FixErrors bool
	// Force writes output even when no candidate beats the input size.
	Force bool

	// Filter explicitly selects which filter strategies are tried. Nil
	// means "use PresetLevel's table".
	Filter []filters.Strategy

	Interlace Interlace

	OptimizeAlpha bool

	// BitDepthReduction, ColorTypeReduction, PaletteReduction and
	// GrayscaleReduction each override the PresetLevel table's reduction
	// defaults for that one knob. Nil means "use whatever PresetLevel
	// says" (levels 1-6 and Max default all four to on); a caller only
	// pays for a pointer when they actually want to diverge from the
	// preset, matching how Filter and Deflate override PresetLevel only
	// when explicitly set.
	BitDepthReduction  *bool
	ColorTypeReduction *bool
	PaletteReduction   *bool
	GrayscaleReduction *bool

	// Scale16 allows 16->8 bit depth reduction even when it is not
	// strictly lossless. No PresetLevel ever turns this on by itself, so
	// unlike the four reduction knobs above it needs no override
	// sentinel: false always means off.
	Scale16 bool

	Strip policy.Policy

	// Deflate explicitly selects the DEFLATE parameter sets tried. Nil
	// means "use PresetLevel's table".
	Deflate []DeflateParams

	// FastEvaluation is accepted but not read: every trial is ranked by
	// its exact compressed size.
	FastEvaluation bool

	Timeout time.Duration

	PresetLevel PresetLevel

	// Workers bounds the trial worker pool; 0 means "use all CPUs".
	Workers int
}

// DefaultOptions returns the spec's PresetLevel 2 defaults: safe strip,
// reductions on, MinSum filter, libdeflate 11 — a reasonable one-shot
// choice for callers that don't want to think about the table.
func DefaultOptions() Options {
	return Options{
		PresetLevel: Preset2,
		Strip:       policy.Policy{Mode: policy.Safe},
	}
}

// resolvedSearchConfig expands Options into the internal search.Config,
// applying the PresetLevel table unless the caller overrode specific
// knobs (spec §6: "preset_level... shorthand selecting defaults for the
// above" — explicit fields win over the shorthand).
func (o Options) resolvedSearchConfig(forAPNGFrame bool) search.Config {
	level := int(o.PresetLevel)
	if o.PresetLevel == PresetMax {
		level = 6
	}
	preset := search.PresetForLevel(level)

	if len(o.Filter) > 0 {
		preset.Filters = o.Filter
	}
	if len(o.Deflate) > 0 {
		preset.Deflate = make([]trial.Params, len(o.Deflate))
		for i, d := range o.Deflate {
			preset.Deflate[i] = toTrialParams(d)
		}
	}

	// Start from the preset's computed reduction table and only poke the
	// knobs the caller actually set; an unset *bool leaves the preset's
	// on/off choice for that field untouched (spec §6, §8.8).
	if o.BitDepthReduction != nil {
		preset.ReductionCfg.BitDepth = *o.BitDepthReduction
	}
	if o.ColorTypeReduction != nil {
		preset.ReductionCfg.ColorType = *o.ColorTypeReduction
	}
	if o.PaletteReduction != nil {
		preset.ReductionCfg.Palette = *o.PaletteReduction
	}
	if o.GrayscaleReduction != nil {
		preset.ReductionCfg.Grayscale = *o.GrayscaleReduction
	}
	preset.ReductionCfg.Scale16 = o.Scale16
	preset.ReductionCfg.AlphaOpt = o.OptimizeAlpha
	if forAPNGFrame {
		// Reductions that would change the header are disabled for
		// APNG frames (spec §4.9): consistent bit depth/color type/
		// palette across frames is not guaranteed otherwise. Alpha
		// optimization is a pure pixel rewrite that never touches the
		// header, so it stays enabled.
		preset.ReductionCfg.BitDepth = false
		preset.ReductionCfg.ColorType = false
		preset.ReductionCfg.Palette = false
		preset.ReductionCfg.Grayscale = false
	}

	var interlace search.InterlaceMode
	switch o.Interlace {
	case InterlaceForceOff:
		interlace = search.InterlaceForceOff
	case InterlaceForceOn:
		interlace = search.InterlaceForceOn
	default:
		interlace = search.InterlaceKeep
	}

	return search.Config{
		Preset:    preset,
		Interlace: interlace,
		Force:     o.Force,
		Workers:   o.Workers,
	}
}

func toTrialParams(d DeflateParams) trial.Params {
	method := trial.MethodLibdeflate
	if d.Method == Zopfli {
		method = trial.MethodZopfli
	}
	return trial.Params{Method: method, Level: d.Level, Iterations: d.Iterations}
}
