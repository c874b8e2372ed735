package http

import (
	"encoding/json"
	"errors"

	apperrors "guardswap/internal/shared/errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ErrorMapping struct {
	Sentinel   error
	HTTPStatus int
	Code       string
	Message    string
	ShouldLog  bool
}

// Ordered so the first errors.Is match wins; wrapped sentinels resolve
// through the chain.
var errorMappings = []ErrorMapping{
	{
		Sentinel:   apperrors.ErrBusy,
		HTTPStatus: fasthttp.StatusConflict,
		Code:       "BUSY",
		Message:    "Another attempt is already in flight",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrInvalidInput,
		HTTPStatus: fasthttp.StatusBadRequest,
		Code:       "INVALID_INPUT",
		Message:    "Invalid input parameters",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrValidation,
		HTTPStatus: fasthttp.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    "Request validation failed",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrInsufficientBalance,
		HTTPStatus: fasthttp.StatusBadRequest,
		Code:       "INSUFFICIENT_BALANCE",
		Message:    "Balance is lower than the requested amount",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrNoWalletFound,
		HTTPStatus: fasthttp.StatusServiceUnavailable,
		Code:       "NO_WALLET_FOUND",
		Message:    "No compatible wallet provider is available",
		ShouldLog:  true,
	},
	{
		Sentinel:   apperrors.ErrNetworkSwitchFailed,
		HTTPStatus: fasthttp.StatusBadGateway,
		Code:       "NETWORK_SWITCH_FAILED",
		Message:    "The wallet could not switch to the target network",
		ShouldLog:  true,
	},
	{
		Sentinel:   apperrors.ErrChainTransactionFailed,
		HTTPStatus: fasthttp.StatusBadGateway,
		Code:       "CHAIN_TRANSACTION_FAILED",
		Message:    "The on-chain transaction failed",
		ShouldLog:  true,
	},
	{
		Sentinel:   apperrors.ErrDataUnavailable,
		HTTPStatus: fasthttp.StatusServiceUnavailable,
		Code:       "DATA_UNAVAILABLE",
		Message:    "Market data for this pair is degraded",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrBusinessRule,
		HTTPStatus: fasthttp.StatusBadRequest,
		Code:       "BUSINESS_RULE_VIOLATION",
		Message:    "Business rule violation",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrNotFound,
		HTTPStatus: fasthttp.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    "Requested resource not found",
		ShouldLog:  false,
	},
	{
		Sentinel:   apperrors.ErrExternalService,
		HTTPStatus: fasthttp.StatusBadGateway,
		Code:       "EXTERNAL_SERVICE_ERROR",
		Message:    "External service unavailable",
		ShouldLog:  true,
	},
	{
		Sentinel:   apperrors.ErrTimeout,
		HTTPStatus: fasthttp.StatusGatewayTimeout,
		Code:       "TIMEOUT_ERROR",
		Message:    "Request timeout",
		ShouldLog:  true,
	},
	{
		Sentinel:   apperrors.ErrInternal,
		HTTPStatus: fasthttp.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error",
		ShouldLog:  true,
	},
}

func (h *Handler) handleError(ctx *fasthttp.RequestCtx, err error) {
	mapping := ErrorMapping{
		HTTPStatus: fasthttp.StatusInternalServerError,
		Code:       "UNKNOWN_ERROR",
		Message:    "An unexpected error occurred",
		ShouldLog:  true,
	}
	for _, candidate := range errorMappings {
		if errors.Is(err, candidate.Sentinel) {
			mapping = candidate
			break
		}
	}

	if mapping.ShouldLog {
		h.logger.Error("Request error",
			zap.Error(err),
			zap.String("path", string(ctx.Path())),
			zap.String("method", string(ctx.Method())),
			zap.String("code", mapping.Code))
	}

	errorResp := ErrorResponse{
		Code:    mapping.Code,
		Message: mapping.Message,
		Details: getErrorDetails(err, mapping.HTTPStatus >= 500),
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(mapping.HTTPStatus)
	json.NewEncoder(ctx).Encode(map[string]ErrorResponse{"error": errorResp})
}

func getErrorDetails(err error, isServerError bool) string {
	if isServerError {
		return ""
	}
	return err.Error()
}
