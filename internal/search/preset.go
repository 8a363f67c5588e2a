package search

import (
	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/reduction"
	"github.com/pixbake/pngopt/internal/trial"
)

// Preset is the expansion of one effort level (spec §6's "required
// table") into the concrete filter/DEFLATE/reduction knobs the driver
// consumes. MaxEffort (level 6's "Max" alias) reuses level 6's table.
type Preset struct {
	Filters       []filters.Strategy
	Deflate       []trial.Params
	ReductionCfg  reduction.Config
	TryBothVariants bool // whether to also trial the pre-reduction image
}

// PresetForLevel expands an effort level 0..6 into its preset. Levels
// outside that range clamp to the nearest end, matching the table's
// intent that effort only ever widens the search.
func PresetForLevel(level int) Preset {
	switch {
	case level <= 0:
		return Preset{
			Filters: []filters.Strategy{{Kind: filters.Basic, Fixed: filters.None}},
			Deflate: []trial.Params{{Method: trial.MethodLibdeflate, Level: 5}},
		}
	case level == 1:
		return Preset{
			Filters: []filters.Strategy{{Kind: filters.Bigrad}},
			Deflate: []trial.Params{{Method: trial.MethodLibdeflate, Level: 8}},
			ReductionCfg: defaultReductionCfg(),
		}
	case level == 2:
		return Preset{
			Filters: []filters.Strategy{{Kind: filters.MinSum}},
			Deflate: []trial.Params{{Method: trial.MethodLibdeflate, Level: 11}},
			ReductionCfg: defaultReductionCfg(),
		}
	case level == 3:
		return Preset{
			Filters: []filters.Strategy{
				{Kind: filters.MinSum},
				{Kind: filters.Entropy},
			},
			Deflate: []trial.Params{{Method: trial.MethodLibdeflate, Level: 11}},
			ReductionCfg: defaultReductionCfg(),
		}
	case level == 4:
		return Preset{
			Filters:         singleFilterSweep(filters.MinSum, filters.Entropy),
			Deflate:         []trial.Params{{Method: trial.MethodLibdeflate, Level: 12}},
			ReductionCfg:    defaultReductionCfg(),
			TryBothVariants: true,
		}
	case level == 5:
		filterSet := singleFilterSweep(filters.MinSum, filters.Entropy, filters.Bigrad)
		return Preset{
			Filters:         filterSet,
			Deflate:         []trial.Params{{Method: trial.MethodLibdeflate, Level: 12}},
			ReductionCfg:    defaultReductionCfg(),
			TryBothVariants: true,
		}
	default: // 6 and Max
		return Preset{
			Filters:         fullFilterSet(),
			Deflate:         []trial.Params{{Method: trial.MethodZopfli, Level: 12, Iterations: 15}, {Method: trial.MethodZopfli, Level: 12, Iterations: 255}},
			ReductionCfg:    defaultReductionCfg(),
			TryBothVariants: true,
		}
	}
}

func defaultReductionCfg() reduction.Config {
	return reduction.Config{
		BitDepth:  true,
		ColorType: true,
		Palette:   true,
		Grayscale: true,
	}
}

// singleFilterSweep adds every fixed filter (spec §6 level 4/5's
// "single-filter sweep"/"extended sweep") to the given adaptive
// strategies, so the candidate set covers both adaptive heuristics and
// every plain fixed-filter choice.
func singleFilterSweep(kinds ...filters.StrategyKind) []filters.Strategy {
	out := make([]filters.Strategy, 0, len(kinds)+len(filters.All))
	for _, k := range kinds {
		out = append(out, filters.Strategy{Kind: k})
	}
	for _, f := range filters.All {
		out = append(out, filters.Strategy{Kind: filters.Basic, Fixed: f})
	}
	return out
}

func fullFilterSet() []filters.Strategy {
	return singleFilterSweep(filters.MinSum, filters.Entropy, filters.Bigrad)
}
