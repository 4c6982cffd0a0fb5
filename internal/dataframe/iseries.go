package dataframe

import (
	"github.com/paveg/bikeshare/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries = series.Column
