package api

import (
	"errors"
	"net/http"
	"strconv"

	"cafe-order/logger"
	"cafe-order/services"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeError maps service errors onto status codes. Anything unrecognized
// is logged and reported as a bare 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		aerr *services.AuthError
		nerr *services.NotFoundError
		terr *services.ThrottleError
	)
	switch {
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &aerr):
		abortWithError(c, http.StatusUnauthorized, aerr.Error())
	case errors.As(err, &nerr):
		abortWithError(c, http.StatusNotFound, nerr.Error())
	case errors.As(err, &terr):
		c.Header("Retry-After", strconv.Itoa(int(terr.RetryAfter.Seconds())))
		abortWithError(c, http.StatusTooManyRequests, terr.Error())
	default:
		s.log.Error("request failed",
			"request_id", logger.RequestID(c),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}
