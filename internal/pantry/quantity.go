package pantry

import (
	"math"
	"strconv"
	"strings"
)

// MaxQuantity bounds stored quantities to the INTEGER column range.
const MaxQuantity = math.MaxInt32

// ParseQuantity coerces raw input the way a browser number field does and
// never fails: empty, non-numeric, non-finite and non-positive input yields 1.
// Decimals truncate toward zero, with a zero result also yielding 1.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		n, intErr := parsePrefixedInt(s)
		if intErr != nil {
			return 1
		}
		f = float64(n)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}

	f = math.Trunc(f)
	if f < 1 {
		return 1
	}
	if f > MaxQuantity {
		return MaxQuantity
	}
	return int(f)
}

// parsePrefixedInt accepts the 0x/0o/0b literals number coercion allows.
func parsePrefixedInt(s string) (int64, error) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "0x") && !strings.HasPrefix(lower, "0o") && !strings.HasPrefix(lower, "0b") {
		return 0, strconv.ErrSyntax
	}
	if strings.Contains(s, "_") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 0, 64)
}

func addQuantity(existing, delta int) int {
	sum := int64(existing) + int64(delta)
	if sum > MaxQuantity {
		return MaxQuantity
	}
	return int(sum)
}
