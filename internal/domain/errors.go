package domain

import "errors"

// Domain errors.
var (
	// ErrNetwork is returned when a fetch fails on the wire: connection error,
	// timeout or a non-2xx status.
	ErrNetwork = errors.New("network failure")

	// ErrInvalidImage is returned when downloaded bytes do not decode as an image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnexpectedTask is returned when a task fails in a way the fetcher did not
	// classify, including panics.
	ErrUnexpectedTask = errors.New("unexpected task failure")

	// ErrEmptyURL is returned when a request carries no URL.
	ErrEmptyURL = errors.New("empty URL")

	// ErrInvalidDestination is returned when the destination directory cannot be used.
	ErrInvalidDestination = errors.New("invalid destination directory")

	// ErrNoURLs is returned when a batch is submitted without URLs.
	ErrNoURLs = errors.New("no URLs provided")

	// ErrBatchNotFound is returned when a batch cannot be found.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNoBatches is returned when there are no batches to process.
	ErrNoBatches = errors.New("no batches available")
)

// FetchError wraps an error with the URL and the step that failed.
type FetchError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(url, op string, err error) *FetchError {
	return &FetchError{
		URL: url,
		Op:  op,
		Err: err,
	}
}

// FailureReason maps an error to a short label used in logs and metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, ErrEmptyURL):
		return "empty_url"
	case errors.Is(err, ErrInvalidDestination):
		return "destination"
	default:
		return "unexpected"
	}
}
