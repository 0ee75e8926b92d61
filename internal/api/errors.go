package api

import (
	"net/http"
	"time"

	"abverdict/domain/core"
	"abverdict/internal/errors"
	"abverdict/internal/metrics"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeValidationError:
		return http.StatusUnprocessableEntity
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorBody marks failures caused by the uploaded data with kind "data" so
// clients can tell them apart from bad request parameters.
func errorBody(err error) gin.H {
	body := gin.H{
		"error":   errors.GetCode(err),
		"message": err.Error(),
	}
	if core.IsDataError(err) {
		body["kind"] = "data"
	}
	return body
}

func (s *Server) fail(c *gin.Context, start time.Time, err error) {
	status := statusFor(err)
	label := metrics.StatusError
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		label = metrics.StatusInvalid
		if core.IsDataError(err) {
			s.logger.Debug("rejected dataset: %v", err)
		} else {
			s.logger.Debug("rejected analysis request: %v", err)
		}
	case http.StatusRequestTimeout:
		label = metrics.StatusCancelled
		s.logger.Warn("analysis cancelled: %v", err)
	default:
		s.logger.Error("analysis failed: %v", err)
	}
	metrics.RecordAnalysis(metrics.Analysis{Status: label, Seconds: time.Since(start).Seconds()})
	c.AbortWithStatusJSON(status, errorBody(err))
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(errors.InternalError("internal server error")))
	})
}
