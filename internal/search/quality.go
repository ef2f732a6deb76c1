package search

// Match quality buckets as the search service reports them.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

// QualityFor buckets a similarity percentage. Used only when the search
// service omits match_quality; reported qualities pass through untouched.
func QualityFor(similarity float64) string {
	switch {
	case similarity >= 80:
		return QualityExcellent
	case similarity >= 70:
		return QualityGood
	case similarity >= 60:
		return QualityFair
	default:
		return QualityPoor
	}
}
