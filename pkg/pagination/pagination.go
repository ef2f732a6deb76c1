package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 3
	// MaxLimit caps how many results any search page can request.
	MaxLimit = 10
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizeOffset clamps negative offsets to zero.
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// Normalize applies both limit and offset normalization.
func Normalize(p Params) Params {
	return Params{
		Limit:  NormalizeLimit(p.Limit),
		Offset: NormalizeOffset(p.Offset),
	}
}

// NextOffset returns the offset for the page following a page that
// returned count results.
func NextOffset(p Params, count int) int {
	if count < 0 {
		count = 0
	}
	return NormalizeOffset(p.Offset) + count
}
