package countries

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by FindByName when no entry matches.
	ErrNotFound = errors.New("country not found")

	// ErrInvalidTier is matched (errors.Is) by every *TierError.
	ErrInvalidTier = errors.New("invalid difficulty")

	// ErrEmptyTier means the tier filter selected nothing from the loaded catalog.
	ErrEmptyTier = errors.New("no countries for difficulty")
)

// TierError carries the rejected difficulty string.
type TierError struct {
	Input string
}

func (e *TierError) Error() string {
	return fmt.Sprintf("invalid difficulty %q", e.Input)
}

func (e *TierError) Is(target error) bool { return target == ErrInvalidTier }

// DataSourceError reports an unreachable provider or malformed data.
// The catalog does not retry; callers may call Load again.
type DataSourceError struct {
	Op  string // "fetch" or "normalize"
	Err error
}

func (e *DataSourceError) Error() string {
	return "country data source: " + e.Op + ": " + e.Err.Error()
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// IsDataSource reports whether err is (or wraps) a *DataSourceError.
func IsDataSource(err error) bool {
	var dse *DataSourceError
	return errors.As(err, &dse)
}
