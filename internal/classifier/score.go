package classifier

// Band buckets a suitability score for display.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// ScoreBand maps a 0-100 suitability score to its band.
func ScoreBand(score int) Band {
	switch {
	case score >= 85:
		return BandHigh
	case score >= 50:
		return BandMedium
	default:
		return BandLow
	}
}
