// Package policy implements the chunk strip policy and output chunk
// ordering (spec §4.8): which ancillary chunks survive into the
// optimized file, and in what order every chunk is emitted.
package policy

import "github.com/pixbake/pngopt/internal/pngimage"

// Mode selects the strip policy family.
type Mode int

const (
	// None preserves every ancillary chunk from the source.
	None Mode = iota
	// Safe removes ancillary chunks that cannot affect rendering,
	// keeping only the fixed render-relevant allow-list.
	Safe
	// All removes every ancillary chunk not required for correct
	// decoding.
	All
	// Keep preserves exactly the chunk types named in Set, stripping
	// everything else.
	Keep
	// Strip removes exactly the chunk types named in Set, keeping
	// everything else.
	Strip
)

// Policy is the spec §6 Options.strip value.
type Policy struct {
	Mode Mode
	Set  map[string]bool // chunk type -> member, used by Keep/Strip
}

// safeAllowList is the literal PRESERVED_HEADERS set: chunk types that
// carry color-management or physical-scale information rather than
// metadata, and so survive a "Safe" strip.
var safeAllowList = map[string]bool{
	"cHRM": true, "gAMA": true, "iCCP": true, "sBIT": true, "sRGB": true,
	"bKGD": true, "hIST": true, "pHYs": true, "sPLT": true,
}

// Apply filters img.Ancillary in place according to p, preserving the
// original relative order of whatever chunks survive. Critical chunks
// (IHDR, PLTE, tRNS, IDAT/fdAT, IEND) are never represented in
// img.Ancillary and so are never at risk of being stripped here.
func Apply(img *pngimage.Image, p Policy) {
	img.Ancillary = filterAncillary(img.Ancillary, keepFunc(p))
}

func keepFunc(p Policy) func(string) bool {
	switch p.Mode {
	case All:
		return func(string) bool { return false }
	case Safe:
		return func(t string) bool { return safeAllowList[t] }
	case Keep:
		return func(t string) bool { return p.Set[t] }
	case Strip:
		return func(t string) bool { return !p.Set[t] }
	default: // None
		return func(string) bool { return true }
	}
}

func filterAncillary(chunks []pngimage.AncillaryChunk, keep func(string) bool) []pngimage.AncillaryChunk {
	out := make([]pngimage.AncillaryChunk, 0, len(chunks))
	for _, c := range chunks {
		if keep(c.Type) {
			out = append(out, c)
		}
	}
	return out
}

// EmissionOrder returns the chunk type emission order (spec §4.8):
// IHDR, PLTE (if present), tRNS (if present), preserved ancillary
// chunks in original order, then IDAT/fdAT+fcTL, then IEND. For APNG,
// acTL precedes IDAT. This function reports the *category* order; the
// root package's writer is responsible for emitting the concrete bytes
// for each category using this as a checklist.
func EmissionOrder(img *pngimage.Image) []string {
	order := []string{"IHDR"}
	if img.Palette != nil {
		order = append(order, "PLTE")
	}
	if hasTRNS(img) {
		order = append(order, "tRNS")
	}
	for _, c := range img.Ancillary {
		order = append(order, c.Type)
	}
	if img.IsAPNG() {
		order = append(order, "acTL")
	}
	order = append(order, "IDAT")
	if img.IsAPNG() {
		order = append(order, "fcTL+fdAT")
	}
	order = append(order, "IEND")
	return order
}

// hasTRNS reports whether img carries transparency data that needs a
// tRNS chunk: either the Gray/RGB transparency key, or, for Indexed
// images, a palette alpha table (indexed transparency is folded into
// the palette rather than kept as its own Transparency value).
func hasTRNS(img *pngimage.Image) bool {
	if img.Transparency != nil {
		return true
	}
	return img.IHDR.ColorType == pngimage.ColorIndexed && img.Palette != nil && len(img.Palette.Alpha) > 0
}
