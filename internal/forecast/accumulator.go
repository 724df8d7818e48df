// Package forecast folds raw village forecast records into a
// date → time → category structure and decodes it for display.
package forecast

import (
	"github.com/shopspring/decimal"
)

// Accumulator is the running aggregate of one (date, time, category) triple.
type Accumulator struct {
	Category string
	// Value is the representative value: a running mean of numeric samples,
	// or the latest raw value while no numeric value has been seen.
	Value string
	// Count is the number of samples in the mean. Values adopted by overwrite
	// are not counted.
	Count int
	// Values holds every contributing raw value in arrival order.
	Values []string
}

// NewAccumulator seeds an accumulator from the first record of a triple.
// A numeric first value counts as the first sample of the mean.
func NewAccumulator(category, raw string) Accumulator {
	acc := Accumulator{Category: category, Value: raw, Values: []string{raw}}
	if _, ok := parseDecimal(raw); ok {
		acc.Count = 1
	}
	return acc
}

// Fold adds a later raw value for the same triple and returns the updated accumulator.
//
// Both numeric: Value becomes (Value*Count + raw) / (Count+1) and Count is incremented.
// Value non-numeric: raw replaces it verbatim and Count is left as is.
// Value numeric, raw non-numeric: Value is kept.
// raw is always appended to Values.
func Fold(acc Accumulator, raw string) Accumulator {
	acc.Values = append(acc.Values, raw)

	current, currentOK := parseDecimal(acc.Value)
	next, nextOK := parseDecimal(raw)
	switch {
	case currentOK && nextOK:
		n := decimal.NewFromInt(int64(acc.Count))
		acc.Value = current.Mul(n).Add(next).Div(n.Add(decimal.NewFromInt(1))).String()
		acc.Count++
	case !currentOK:
		acc.Value = raw
	}
	return acc
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
