package bridge

import (
	"fmt"
	"math/big"
	"strings"

	"banny-bridge/pkg/apperrors"
)

// ParseAmount converts a user-typed decimal string into smallest units for a
// token with the given decimal precision. Parsing is exact: no floats, and a
// fractional part longer than the token's decimals is rejected rather than
// truncated.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", apperrors.ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: negative amount %q", apperrors.ErrInvalidAmount, s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidAmount, s)
		}
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidAmount, s)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", apperrors.ErrInvalidAmount, s, decimals)
	}
	if whole == "" {
		whole = "0"
	}

	padded := frac + strings.Repeat("0", int(decimals)-len(frac))

	v, ok := new(big.Int).SetString(whole+padded, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidAmount, s)
	}
	return v, nil
}

// FormatUnits renders a smallest-unit amount as a decimal string, trimming
// trailing fractional zeros.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}

	s := v.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}

	whole := s[:len(s)-d]
	frac := strings.TrimRight(s[len(s)-d:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
