package shoppinglist

import "strings"

// UnitInfo describes how a canonical unit converts into its base unit.
type UnitInfo struct {
	Base       string
	Multiplier float64
}

// Normalized is a quantity expressed in a base unit.
type Normalized struct {
	Quantity float64
	Unit     string
}

// unitAliases maps common spellings (including the Vietnamese count units
// with their diacritics) to a canonical unit key. Loaded once, never mutated.
var unitAliases = map[string]string{
	"gram":       "g",
	"grams":      "g",
	"gr":         "g",
	"gam":        "g",
	"kilogram":   "kg",
	"kilograms":  "kg",
	"milligram":  "mg",
	"milliliter": "ml",
	"liter":      "l",
	"litre":      "l",
	"quả":        "qua",
	"trái":       "qua",
	"tép":        "tep",
	"gói":        "goi",
	"lá":         "la",
	"cây":        "cay",
}

// baseUnits maps each canonical unit to its base unit and the multiplier
// into that base. Mass converts to grams, volume to milliliters; count
// units are their own base and never convert into each other.
var baseUnits = map[string]UnitInfo{
	"mg":  {Base: "g", Multiplier: 0.001},
	"g":   {Base: "g", Multiplier: 1},
	"kg":  {Base: "g", Multiplier: 1000},
	"ml":  {Base: "ml", Multiplier: 1},
	"l":   {Base: "ml", Multiplier: 1000},
	"qua": {Base: "qua", Multiplier: 1},
	"tep": {Base: "tep", Multiplier: 1},
	"goi": {Base: "goi", Multiplier: 1},
	"la":  {Base: "la", Multiplier: 1},
	"cay": {Base: "cay", Multiplier: 1},
}

// LookupUnit resolves a free-text unit label to its conversion info.
// The label is lowercased and trimmed, checked against the alias table
// first and then against the canonical keys themselves. The second return
// is false when the label is unrecognized.
func LookupUnit(label string) (UnitInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := unitAliases[key]; ok {
		key = canonical
	}
	info, ok := baseUnits[key]
	return info, ok
}

// Normalize converts a quantity in the given unit into its base unit.
// Unrecognized units return false; callers fall back to the raw quantity
// and label rather than treating that as an error.
func Normalize(quantity float64, unit string) (Normalized, bool) {
	info, ok := LookupUnit(unit)
	if !ok {
		return Normalized{}, false
	}
	return Normalized{Quantity: quantity * info.Multiplier, Unit: info.Base}, true
}
