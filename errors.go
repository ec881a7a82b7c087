package fetchcache

import (
	"errors"
	"fmt"
)

var ErrNilTransport = errors.New("fetchcache: transport is required")

// PatchError reports a cached entry that could not be patched. The entry is
// left as it was.
type PatchError struct {
	Key string
	Err error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %q: %v", e.Key, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

type InvalidateError struct {
	Key      string
	DelErr   error
	IndexErr error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.DelErr != nil && e.IndexErr != nil:
		return fmt.Sprintf("invalidate %q failed: delete and index removal failed: delete=%v; index=%v",
			e.Key, e.DelErr, e.IndexErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	case e.IndexErr != nil:
		return fmt.Sprintf("invalidate %q: index removal failed: %v", e.Key, e.IndexErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	if e.IndexErr != nil {
		errs = append(errs, e.IndexErr)
	}
	return errs
}
