package roster

import (
	"bytes"
	"encoding/csv"

	"github.com/pkg/errors"
)

// ErrMalformedInput aborts a whole batch before any row is processed.
var ErrMalformedInput = errors.New("malformed tabular input")

// DecodeTable parses a raw upload into positional rows, in file order.
// The first line is data, not a header. Rows may have ragged lengths;
// the normalizer deals with missing fields.
func DecodeTable(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedInput, err.Error())
	}
	return rows, nil
}
