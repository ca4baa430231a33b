package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies one case of the closed error taxonomy returned by the engine.
type ErrorKind int

// Error kinds.
const (
	KindOther ErrorKind = iota
	KindInvalidURL
	KindInvalidVersion
	KindInvalidDataReturned
	KindNoMoreData
	KindInvalidRequest
	KindDataConversionFailed
	KindInvalidPostBody
	KindCouldNotCreateService
	KindInvalidTransportSession
	KindCouldNotStoreDownload
	KindPollingNotCompleted
	KindCouldNotCreateImageFromURL
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternalServerError
	KindServiceUnavailable
	KindResponseStatus
	KindPollingJobNotCreated
	KindPollingJobStatusFailed
	KindNotModified
	KindNoURLReturned
	KindCacheProviderNoURLAvailable
	KindImageProviderNoImageAvailable
	KindImageProviderCouldNotStoreImage
	KindMissingCacheProvider
	KindMissingImageProvider
)

var kindNames = map[ErrorKind]string{
	KindOther:                           "other",
	KindInvalidURL:                      "invalid URL",
	KindInvalidVersion:                  "invalid version",
	KindInvalidDataReturned:             "invalid data returned",
	KindNoMoreData:                      "no more data",
	KindInvalidRequest:                  "invalid request",
	KindDataConversionFailed:            "data conversion failed",
	KindInvalidPostBody:                 "invalid post body",
	KindCouldNotCreateService:           "could not create service",
	KindInvalidTransportSession:         "invalid transport session",
	KindCouldNotStoreDownload:           "could not store download",
	KindPollingNotCompleted:             "polling not completed",
	KindCouldNotCreateImageFromURL:      "could not create image from URL",
	KindBadRequest:                      "bad request",
	KindUnauthorized:                    "unauthorized",
	KindForbidden:                       "forbidden",
	KindNotFound:                        "not found",
	KindConflict:                        "conflict",
	KindInternalServerError:             "internal server error",
	KindServiceUnavailable:              "service unavailable",
	KindResponseStatus:                  "response status error",
	KindPollingJobNotCreated:            "polling job not created",
	KindPollingJobStatusFailed:          "polling job status failed",
	KindNotModified:                     "not modified",
	KindNoURLReturned:                   "no URL returned",
	KindCacheProviderNoURLAvailable:     "cache provider has no URL available",
	KindImageProviderNoImageAvailable:   "image provider has no image available",
	KindImageProviderCouldNotStoreImage: "image provider could not store image",
	KindMissingCacheProvider:            "missing cache provider",
	KindMissingImageProvider:            "missing image provider",
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("error kind %d", int(k))
}

// Error is the single error type produced by the engine. Kind selects the taxonomy
// case; the remaining fields carry whatever context that case has.
type Error struct {
	Kind ErrorKind
	// Message is a human-readable diagnostic.
	Message string
	// StatusCode is set for server and response status errors.
	StatusCode int
	// Body is the best-effort parsed response body, nil when it was not JSON.
	Body *Value
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()

	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status: %d)", msg, e.StatusCode)
	}

	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the exported
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t == e || (t.Kind == e.Kind && isSentinel(t))
}

// Detail returns the server-supplied detail from the error body, if any.
func (e *Error) Detail() string {
	if e.Body == nil {
		return ""
	}

	for _, key := range []string{"detail", "title", "message"} {
		if s, ok := e.Body.Get(key).AsString(); ok && s != "" {
			return s
		}
	}

	return ""
}

// Sentinels, one per kind.
var (
	ErrOther                           = &Error{Kind: KindOther}
	ErrInvalidURL                      = &Error{Kind: KindInvalidURL}
	ErrInvalidVersion                  = &Error{Kind: KindInvalidVersion}
	ErrInvalidDataReturned             = &Error{Kind: KindInvalidDataReturned}
	ErrNoMoreData                      = &Error{Kind: KindNoMoreData}
	ErrInvalidRequest                  = &Error{Kind: KindInvalidRequest}
	ErrDataConversionFailed            = &Error{Kind: KindDataConversionFailed}
	ErrInvalidPostBody                 = &Error{Kind: KindInvalidPostBody}
	ErrCouldNotCreateService           = &Error{Kind: KindCouldNotCreateService}
	ErrInvalidTransportSession         = &Error{Kind: KindInvalidTransportSession}
	ErrCouldNotStoreDownload           = &Error{Kind: KindCouldNotStoreDownload}
	ErrPollingNotCompleted             = &Error{Kind: KindPollingNotCompleted}
	ErrCouldNotCreateImageFromURL      = &Error{Kind: KindCouldNotCreateImageFromURL}
	ErrBadRequest                      = &Error{Kind: KindBadRequest}
	ErrUnauthorized                    = &Error{Kind: KindUnauthorized}
	ErrForbidden                       = &Error{Kind: KindForbidden}
	ErrNotFound                        = &Error{Kind: KindNotFound}
	ErrConflict                        = &Error{Kind: KindConflict}
	ErrInternalServerError             = &Error{Kind: KindInternalServerError}
	ErrServiceUnavailable              = &Error{Kind: KindServiceUnavailable}
	ErrResponseStatus                  = &Error{Kind: KindResponseStatus}
	ErrPollingJobNotCreated            = &Error{Kind: KindPollingJobNotCreated}
	ErrPollingJobStatusFailed          = &Error{Kind: KindPollingJobStatusFailed}
	ErrNotModified                     = &Error{Kind: KindNotModified}
	ErrNoURLReturned                   = &Error{Kind: KindNoURLReturned}
	ErrCacheProviderNoURLAvailable     = &Error{Kind: KindCacheProviderNoURLAvailable}
	ErrImageProviderNoImageAvailable   = &Error{Kind: KindImageProviderNoImageAvailable}
	ErrImageProviderCouldNotStoreImage = &Error{Kind: KindImageProviderCouldNotStoreImage}
	ErrMissingCacheProvider            = &Error{Kind: KindMissingCacheProvider}
	ErrMissingImageProvider            = &Error{Kind: KindMissingImageProvider}
)

func isSentinel(e *Error) bool {
	return e.Message == "" && e.StatusCode == 0 && e.Body == nil && e.Err == nil
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// AsError converts any error into the taxonomy. Errors already in the taxonomy
// are returned as is; anything else is wrapped as KindOther.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Kind: KindOther, Err: err}
}

var statusKinds = map[int]ErrorKind{
	http.StatusNotModified:         KindNotModified,
	http.StatusBadRequest:          KindBadRequest,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindForbidden,
	http.StatusNotFound:            KindNotFound,
	http.StatusConflict:            KindConflict,
	http.StatusInternalServerError: KindInternalServerError,
	http.StatusServiceUnavailable:  KindServiceUnavailable,
}

// StatusError classifies a non-2xx status code. It returns nil for 2xx.
func StatusError(statusCode int, body []byte) error {
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	kind, ok := statusKinds[statusCode]
	if !ok {
		kind = KindResponseStatus
	}

	e := &Error{Kind: kind, StatusCode: statusCode}

	if len(body) > 0 {
		var v Value
		if json.Unmarshal(body, &v) == nil {
			e.Body = &v
		}
	}

	if e.Body == nil {
		e.Message = http.StatusText(statusCode)
	} else {
		e.Message = e.Detail()
	}

	return e
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotModified checks if the error is a not modified response.
func IsNotModified(err error) bool {
	return errors.Is(err, ErrNotModified)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}

	return 0
}
