package notesdb

import (
	"errors"
	"fmt"
)

// ErrNotOpen is returned by queries issued before Open.
var ErrNotOpen = errors.New("source database is not open")

// DataAccessError reports a failure to open or query the source database,
// including a missing table or column.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("source database: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}
