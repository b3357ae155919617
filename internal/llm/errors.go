package llm

import "errors"

// fatalError marks an error that no amount of retrying can fix, such
// as missing identity configuration or rejected credentials. The
// invocation wrapper propagates fatal errors immediately and treats
// everything else as transient.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// MarkFatal wraps err so IsFatal reports true for it.
func MarkFatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err (or anything it wraps) was marked fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
