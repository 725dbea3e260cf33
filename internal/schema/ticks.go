package schema

import "github.com/yanun0323/errors"

var ErrBadPrice = errors.New("schema: malformed price string")

// ParseTicks converts a decimal dollar string ("0.525") into ticks using
// integer arithmetic only. Fractions beyond 3 digits are rejected rather than
// rounded so a mis-scaled feed cannot silently shift prices.
func ParseTicks(s string) (Ticks, error) {
	if s == "" {
		return 0, ErrBadPrice
	}

	whole, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			whole, frac = s[:i], s[i+1:]
			break
		}
	}

	var ticks int64
	if whole != "" {
		for i := 0; i < len(whole); i++ {
			c := whole[i]
			if c < '0' || c > '9' {
				return 0, errors.Wrapf(ErrBadPrice, "input %q", s)
			}
			ticks = ticks*10 + int64(c-'0')
			if ticks > int64(ParTicks) {
				return 0, errors.Wrapf(ErrBadPrice, "input %q out of range", s)
			}
		}
		ticks *= 1000
	}

	if len(frac) > 3 {
		for _, c := range frac[3:] {
			if c != '0' {
				return 0, errors.Wrapf(ErrBadPrice, "input %q below tick granularity", s)
			}
		}
		frac = frac[:3]
	}
	scale := int64(100)
	for i := 0; i < len(frac); i++ {
		c := frac[i]
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(ErrBadPrice, "input %q", s)
		}
		ticks += int64(c-'0') * scale
		scale /= 10
	}

	t := Ticks(ticks)
	if !t.Valid() {
		return 0, errors.Wrapf(ErrBadPrice, "input %q out of range", s)
	}
	return t, nil
}
