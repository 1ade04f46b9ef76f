package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTimeout matches every *TimeoutError through errors.Is.
var ErrTimeout = errors.New("httpx: request timeout")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

// TimeoutError reports a request abandoned when its deadline expired.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %dms: %s", e.After.Milliseconds(), e.URL)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// StatusCode extracts the upstream status code from err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
