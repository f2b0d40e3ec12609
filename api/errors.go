package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/service"
)

// statusFor maps the service error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrProfileRequired):
		return http.StatusForbidden
	case db.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrProfileExists),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrListingClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// publicMessage is what the client sees. Internal detail stays in the logs.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		msg := err.Error()
		if i := strings.Index(msg, service.ErrInvalidInput.Error()+": "); i >= 0 {
			msg = msg[i+len(service.ErrInvalidInput.Error())+2:]
		}
		return msg
	case errors.Is(err, service.ErrForbidden):
		return "you are not allowed to do this"
	case errors.Is(err, service.ErrProfileRequired):
		return "complete a profile with the required role first"
	case db.IsNotFound(err):
		return "not found"
	case errors.Is(err, service.ErrProfileExists):
		return "profile already completed"
	case errors.Is(err, service.ErrInvalidTransition):
		return "application has already been reviewed"
	case errors.Is(err, service.ErrListingClosed):
		return "listing is closed"
	}
	return "something went wrong, please try again"
}

// fail records err on the context for the request logger and writes the
// mapped response.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": publicMessage(err)})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
