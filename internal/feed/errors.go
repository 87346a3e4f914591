package feed

import "fmt"

// DecodeError reports a malformed feed body. Recovered counts the
// candidates yielded before decoding stopped.
type DecodeError struct {
	Format    Format
	Recovered int
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s feed (recovered %d candidates): %v", e.Format, e.Recovered, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeError(format Format, recovered int, err error) *DecodeError {
	return &DecodeError{Format: format, Recovered: recovered, Err: err}
}
