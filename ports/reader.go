package ports

import (
	"context"

	"abverdict/domain/dataset"
)

// TableReader loads the caller's tabular data. Implementations own file formats;
// the analysis core only ever sees a dataset.Table.
type TableReader interface {
	ReadTable(ctx context.Context) (*dataset.Table, error)
}
