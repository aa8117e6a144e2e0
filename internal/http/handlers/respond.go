package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// Uniqueness conflicts are reported as 400 with their own code.
func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, "conflict", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

// RespondAppError picks the status from the apperr kind carried by err.
func RespondAppError(ctx *gin.Context, err error) {
	msg := apperr.MessageOf(err)

	switch {
	case errors.Is(err, apperr.ErrBadRequest):
		RespondBadRequest(ctx, msg, nil)
	case errors.Is(err, apperr.ErrConflict):
		RespondConflict(ctx, msg)
	case errors.Is(err, apperr.ErrNotFound):
		RespondNotFound(ctx, msg)
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondUnAuthorized(ctx, "unauthorized", msg)
	case errors.Is(err, apperr.ErrForbidden):
		RespondForbidden(ctx, msg)
	default:
		_ = ctx.Error(err)
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"err", err,
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, msg)
	}
}
