package ports

// Progress receives advisory updates while a long batch runs. Work units
// are predicted up front (quadratic in set size) so observers can show a
// meaningful fraction; implementations must not affect results.
type Progress interface {
	Advance(unitsDone, unitsTotal int64)
}

// NopProgress discards all updates. Used wherever progress reporting is
// switched off, including tests.
type NopProgress struct{}

func (NopProgress) Advance(unitsDone, unitsTotal int64) {}
