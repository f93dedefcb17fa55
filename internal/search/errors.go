package search

import "github.com/cockroachdb/errors"

// Sentinel errors for the core engine. NotADirectory, EmptyPattern and
// BadRegex abort a search and propagate to the caller. Io and Encoding are
// swallowed per file; the walk continues. LineNumbersDisabled indicates a
// scanner invariant was violated and is a programmer error.
var (
	ErrNotADirectory       = errors.New("searcher: path is not a directory")
	ErrEmptyPattern        = errors.New("searcher: pattern must not be empty")
	ErrBadRegex            = errors.New("searcher: failed to compile regular expression")
	ErrEncoding            = errors.New("searcher: input is not valid UTF-8")
	ErrLineNumbersDisabled = errors.New("searcher: scanner produced a line with no line number")
)

// badRequestError marks an error as the caller's fault, mirroring
// cmd/searcher/search.badRequestError in the teacher service so an outer
// HTTP layer can translate it to a 4xx without inspecting error strings.
type badRequestError struct{ cause error }

func (e badRequestError) Error() string    { return e.cause.Error() }
func (e badRequestError) Unwrap() error    { return e.cause }
func (e badRequestError) BadRequest() bool { return true }

// IsBadRequest reports whether err (or a cause in its chain) represents an
// invalid request rather than an internal failure.
func IsBadRequest(err error) bool {
	var marker interface{ BadRequest() bool }
	return errors.As(err, &marker) && marker.BadRequest()
}
