package strategy

import "main/internal/schema"

// sizeFor maps the remaining-time ratio (permille) onto the configured bands.
// Non-increasing as the ratio falls: late-market fills have less time to be
// paired off, so exposure shrinks.
func (b SizeBands) sizeFor(remainingPermille int64) schema.Shares {
	switch {
	case remainingPermille > b.UpperPermille:
		return b.Early
	case remainingPermille >= b.LowerPermille:
		return b.Mid
	default:
		return b.Late
	}
}
