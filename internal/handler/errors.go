package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
	"github.com/Jinwoo290350/PaiLOCAL/internal/service"
)

var errBodyTooLarge = errors.New("request body too large")

// errorResponse is the body of every failed request.
type errorResponse struct {
	StatusCode int                `json:"statusCode"`
	Message    string             `json:"message"`
	Error      string             `json:"error"`
	Errors     []model.FieldError `json:"errors,omitempty"`
}

func newErrorResponse(status int, msg string) errorResponse {
	return errorResponse{StatusCode: status, Message: msg, Error: http.StatusText(status)}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, newErrorResponse(status, msg))
}

// writeError maps service errors onto HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		verrs model.ValidationErrors
		nf    *service.NotFoundError
	)
	switch {
	case errors.As(err, &verrs):
		resp := newErrorResponse(http.StatusBadRequest, verrs.Error())
		resp.Errors = verrs
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)
	case errors.As(err, &nf):
		abortWithError(c, http.StatusNotFound, nf.Error())
	case errors.Is(err, errBodyTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrImportUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrPlaceLookup):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
