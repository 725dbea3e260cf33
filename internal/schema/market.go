package schema

import "time"

// Market identifies one short-duration binary market. The record is built by
// the discovery collaborator and replaced wholesale on a market switch.
type Market struct {
	ID       string
	Slug     string
	YesAsset string
	NoAsset  string
	EndAt    time.Time
	Duration time.Duration
}

// AssetSide maps an exchange asset identifier to its side.
func (m Market) AssetSide(assetID string) (Side, bool) {
	switch assetID {
	case m.YesAsset:
		return SideYes, true
	case m.NoAsset:
		return SideNo, true
	default:
		return SideYes, false
	}
}

// Remaining returns the time left until expiry, floored at zero.
func (m Market) Remaining(now time.Time) time.Duration {
	left := m.EndAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// RemainingPermille returns remaining/duration scaled to 0..1000. Sizing
// bands compare against this so no decision touches floating point.
func (m Market) RemainingPermille(now time.Time) int64 {
	if m.Duration <= 0 {
		return 0
	}
	ratio := int64(m.Remaining(now)) * 1000 / int64(m.Duration)
	if ratio > 1000 {
		ratio = 1000
	}
	return ratio
}

// Expired reports whether the market has passed its scheduled end.
func (m Market) Expired(now time.Time) bool {
	return !now.Before(m.EndAt)
}
