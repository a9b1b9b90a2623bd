package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	ledgererrors "norifarm/core/errors"
	nativecommon "norifarm/native/common"
	"norifarm/observability/metrics"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

var validationErrors = []error{
	errBadRequest,
	ledgererrors.ErrInsufficientBalance,
	ledgererrors.ErrInsufficientStake,
	ledgererrors.ErrZeroAmount,
	ledgererrors.ErrZeroAddress,
	ledgererrors.ErrSupplyCapExceeded,
	ledgererrors.ErrArithmeticOverflow,
}

// statusFor maps an operation error to the HTTP status returned to callers.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ledgererrors.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, operation string, err error) {
	status := statusFor(err)
	reason := metrics.ReasonFor(err)
	if errors.Is(err, errBadRequest) {
		reason = "bad_request"
	}
	s.failures.RecordFailure(operation, reason)
	if status == http.StatusInternalServerError {
		s.logger.Error("operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Info("operation rejected", "operation", operation, "reason", reason, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: reason})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
