package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizgate/internal/quiz"
	"github.com/abhisek/quizgate/internal/session"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest        = "BAD_REQUEST"
	codeNotFound          = "SESSION_NOT_FOUND"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeOracleUnavailable = "ORACLE_UNAVAILABLE"
	codeMalformedResponse = "MALFORMED_ORACLE_RESPONSE"
	codeInternal          = "INTERNAL"
)

func statusFor(err error) (int, string) {
	var (
		unavailable *quiz.OracleUnavailableError
		malformed   *quiz.MalformedResponseError
		invalid     *quiz.InvalidTransitionError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.As(err, &invalid):
		return http.StatusConflict, codeInvalidTransition
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity, codeMalformedResponse
	case errors.As(err, &unavailable):
		return http.StatusBadGateway, codeOracleUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(), "session_id", c.Param("id"), "error", err)
	} else {
		s.logger.WarnContext(c.Request.Context(), "request rejected",
			"path", c.FullPath(), "session_id", c.Param("id"), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  codeBadRequest,
	})
}
