package errors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalid              = errors.New("invalid")
	ErrConflict             = errors.New("conflict")
	ErrInternal             = errors.New("internal")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrNoTranscript         = errors.New("lecture has no transcript")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
