package classify

import "fmt"

// UnknownIndexError is returned when an index name does not resolve.
type UnknownIndexError struct {
	Name string
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("unknown index %q", e.Name)
}

// UnknownSectorError is returned when no symbol resolves to a sector.
type UnknownSectorError struct {
	Name string
}

func (e *UnknownSectorError) Error() string {
	return fmt.Sprintf("unknown sector %q", e.Name)
}
