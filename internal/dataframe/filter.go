package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow/array"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Filter returns a new dataset holding the rows where mask is true.
// Null mask entries count as false.
func (ds *Dataset) Filter(mask *array.Boolean) (*Dataset, error) {
	if mask.Len() != ds.Len() {
		return nil, dferrors.NewValidationError("Filter", "",
			"mask length does not match dataset length")
	}

	indices := make([]int, 0, mask.Len())
	for i := 0; i < mask.Len(); i++ {
		if !mask.IsNull(i) && mask.Value(i) {
			indices = append(indices, i)
		}
	}
	return ds.Take(indices), nil
}
