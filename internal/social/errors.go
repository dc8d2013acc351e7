package social

import (
	"errors"
	"fmt"

	"github.com/snapgram/backend/internal/store"
)

var (
	// ErrValidation indicates malformed input. Returned errors are *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced entity does not exist. Returned errors are *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEdge indicates the follow edge already exists.
	ErrDuplicateEdge = errors.New("already following")
	// ErrDuplicateLike indicates the user already liked the post.
	ErrDuplicateLike = errors.New("post already liked")
	// ErrDuplicateView indicates the user already viewed the story.
	ErrDuplicateView = errors.New("story already viewed")
	// ErrSelfFollow indicates a user attempted to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrSelfMessage indicates a user attempted to message themselves.
	ErrSelfMessage = errors.New("cannot message yourself")
	// ErrForbidden indicates the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConcurrentChange indicates rows referencing the deleted entity were
	// added while the delete ran. Nothing was removed and the call may be retried.
	ErrConcurrentChange = errors.New("entity changed during delete")
	// ErrAssetStorageUnavailable indicates an upload was attempted without asset storage.
	ErrAssetStorageUnavailable = errors.New("asset storage not configured")
)

// ValidationError describes the input field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError identifies the entity that could not be resolved.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Entity names used in NotFoundError.
const (
	entityUser    = "user"
	entityPost    = "post"
	entityComment = "comment"
	entityStory   = "story"
	entityMessage = "message"
)

// missing converts store.ErrNotFound into a NotFoundError for entity/id and
// store.ErrReferenced into ErrConcurrentChange. Every other error passes through.
func missing(err error, entity string, id int64) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Entity: entity, ID: id}
	case errors.Is(err, store.ErrReferenced):
		return fmt.Errorf("%w: %s %d", ErrConcurrentChange, entity, id)
	}
	return err
}

// duplicate converts store.ErrConflict into sentinel and passes every other
// error through.
func duplicate(err error, sentinel error) error {
	if errors.Is(err, store.ErrConflict) {
		return sentinel
	}
	return err
}
