package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Classify converts any failure into exactly one Error. It is pure: the input is
// never mutated and nothing outside the returned value is touched.
//
// Priority: structured API body, cancellation, timeout, decode failure,
// transport fault, validation failure, unknown.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Description
		if msg == "" {
			msg = apiErr.ErrorCode
		}
		var meta []MetaEntry
		if apiErr.Meta != nil {
			meta = make([]MetaEntry, len(apiErr.Meta))
			copy(meta, apiErr.Meta)
		}
		return &Error{
			env: Envelope{
				Kind:       KindAPI,
				Message:    msg,
				Code:       apiErr.ErrorCode,
				HTTPStatus: apiErr.StatusCode,
				RequestID:  apiErr.RequestID,
				Meta:       meta,
			},
			cause: err,
		}
	}

	if errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) {
		return Wrap(KindCanceled, err)
	}

	if isTimeout(err) {
		return Wrap(KindTimeout, err)
	}

	// Must precede isTransport: a truncated body decodes to io.ErrUnexpectedEOF.
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return Wrap(KindSerialization, err)
	}

	if isTransport(err) {
		return Wrap(KindTransport, err)
	}

	if isDecode(err) {
		return Wrap(KindSerialization, err)
	}

	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return Wrap(KindValidation, err)
	}

	return Wrap(KindUnknown, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransport(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr), errors.As(err, &urlErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}

func isDecode(err error) bool {
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &synErr) || errors.As(err, &typeErr)
}
