// Package units converts physical quantities between compatible units.
//
// Units partition into disjoint families (mass, volume, count); conversion is
// only defined within a family. Factors are exact, and no rounding happens
// here: rounding is the pricing calculator's job.
package units

import (
	"math"
	"strings"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
)

// Unit is a supported unit of measurement.
type Unit string

// Quantity pairs a non-negative value with its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

const (
	Kilogram   Unit = "kg"
	Gram       Unit = "g"
	Liter      Unit = "L"
	Milliliter Unit = "ml"
	Each       Unit = "each"
)

// Family names.
const (
	FamilyMass   = "mass"
	FamilyVolume = "volume"
	FamilyCount  = "count"
)

var families = map[string][]Unit{
	FamilyMass:   {Kilogram, Gram},
	FamilyVolume: {Liter, Milliliter},
	FamilyCount:  {Each},
}

// conversions maps (from, to) to the exact factor.
var conversions = map[[2]Unit]float64{
	{Gram, Kilogram}:     0.001,
	{Kilogram, Gram}:     1000.0,
	{Milliliter, Liter}:  0.001,
	{Liter, Milliliter}:  1000.0,
}

var baseUnits = map[string]Unit{
	FamilyMass:   Kilogram,
	FamilyVolume: Liter,
	FamilyCount:  Each,
}

// Parse normalizes a raw unit string. It trims whitespace and accepts the
// upper-case spellings the cost source occasionally produces ("KG", "ML").
func Parse(raw string) (Unit, bool) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "kg":
		return Kilogram, true
	case "g":
		return Gram, true
	case "l":
		return Liter, true
	case "ml":
		return Milliliter, true
	case "each":
		return Each, true
	}
	return "", false
}

// Family returns the family a unit belongs to.
func Family(unit Unit) (string, error) {
	for name, members := range families {
		for _, m := range members {
			if m == unit {
				return name, nil
			}
		}
	}
	return "", errors.NewIncompatibleUnitsError(string(unit), string(unit))
}

// CanConvert reports whether from and to belong to the same family.
func CanConvert(from, to Unit) bool {
	ff, err := Family(from)
	if err != nil {
		return false
	}
	tf, err := Family(to)
	if err != nil {
		return false
	}
	return ff == tf
}

// Convert converts a value between compatible units. Same-unit conversion is
// always the identity. Cross-family conversion, or any unrecognized unit,
// fails with an INCOMPATIBLE_UNITS error.
func Convert(value float64, from, to Unit) (float64, error) {
	if !CanConvert(from, to) {
		return 0, errors.NewIncompatibleUnitsError(string(from), string(to))
	}
	if from == to {
		return value, nil
	}
	factor, ok := conversions[[2]Unit{from, to}]
	if !ok {
		return 0, errors.NewIncompatibleUnitsError(string(from), string(to))
	}
	return value * factor, nil
}

// ConvertString is Convert over raw unit strings, parsing both sides first.
func ConvertString(value float64, from, to string) (float64, error) {
	fu, ok := Parse(from)
	if !ok {
		return 0, errors.NewIncompatibleUnitsError(from, to)
	}
	tu, ok := Parse(to)
	if !ok {
		return 0, errors.NewIncompatibleUnitsError(from, to)
	}
	return Convert(value, fu, tu)
}

// ToBaseUnit converts a quantity to its family's canonical unit
// (kg for mass, L for volume, each for count).
func ToBaseUnit(value float64, unit Unit) (float64, Unit, error) {
	family, err := Family(unit)
	if err != nil {
		return 0, "", err
	}
	base := baseUnits[family]
	converted, err := Convert(value, unit, base)
	if err != nil {
		return 0, "", err
	}
	return converted, base, nil
}

// ConvertWithPrecision converts and rounds half away from zero to the given
// number of decimals. Reporting convenience only; the pricing path uses
// Convert directly.
func ConvertWithPrecision(value float64, from, to Unit, precision int) (float64, error) {
	result, err := Convert(value, from, to)
	if err != nil {
		return 0, err
	}
	pow := math.Pow(10, float64(precision))
	return math.Round(result*pow) / pow, nil
}

// BatchConvert converts multiple quantities to the same target unit.
func BatchConvert(items []Quantity, to Unit) ([]float64, error) {
	out := make([]float64, 0, len(items))
	for _, item := range items {
		v, err := Convert(item.Value, item.Unit, to)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
