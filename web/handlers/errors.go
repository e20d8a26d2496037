package handlers

import (
	"context"
	"errors"
	"net/http"

	apperrors "fitmate/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	// Log technical error with context
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}

	// Return user-friendly message
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithChatError maps an error from the chat pipeline onto a status
// code and message.
func respondWithChatError(c *gin.Context, err error, logger *zap.Logger, fields ...zap.Field) {
	switch {
	case apperrors.IsInvalidInput(err):
		respondWithClientError(c, http.StatusBadRequest, "Please enter a message and pick a valid goal.")
	case apperrors.IsNotFound(err):
		respondWithClientError(c, http.StatusNotFound, "We couldn't find that agent or message.")
	case errors.Is(err, apperrors.ErrRateLimited):
		respondWithClientError(c, http.StatusTooManyRequests, "You're sending messages too quickly. Please wait a moment.")
	case errors.Is(err, apperrors.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		respondWithError(c, http.StatusGatewayTimeout, err, "FitMate took too long to answer. Please try again.", logger, fields...)
	case apperrors.IsRemoteFailure(err):
		respondWithError(c, http.StatusBadGateway, err, "FitMate couldn't reach the assistant. Please try again shortly.", logger, fields...)
	default:
		respondWithError(c, http.StatusInternalServerError, err, "Something went wrong. Please try again.", logger, fields...)
	}
}
