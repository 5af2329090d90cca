package httpadapter

import (
	"net/http"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidCriteria):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrSourceUnrecoverable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// envelopeHTTPStatus maps a failed envelope's error code onto a transport
// status. Successful envelopes are always 200.
func envelopeHTTPStatus(envelope domain.ResultEnvelope) int {
	if envelope.Success {
		return http.StatusOK
	}
	switch envelope.ErrorCode {
	case domain.ErrorCodeInvalidCriteria:
		return http.StatusBadRequest
	case domain.ErrorCodeNotImplemented:
		return http.StatusNotImplemented
	case domain.ErrorCodeDiscoveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
