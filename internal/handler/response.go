package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sigmine/internal/apperr"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

// Created is Ok with a 201 status, for endpoints that make a new resource.
func Created(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusCreated, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps a service error to its HTTP status. Unclassified errors are
// reported as 500 without leaking internals.
func Fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case apperr.KindAuth:
		status, message = http.StatusUnauthorized, err.Error()
	case apperr.KindForbidden:
		status, message = http.StatusForbidden, err.Error()
	case apperr.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case apperr.KindConflict:
		status, message = http.StatusConflict, err.Error()
	case apperr.KindRateLimit:
		status, message = http.StatusTooManyRequests, err.Error()
	case apperr.KindUpstream:
		status, message = http.StatusBadGateway, err.Error()
	case apperr.KindUnavailable:
		status, message = http.StatusServiceUnavailable, err.Error()
	}
	Error(c, status, message, apperr.MetaOf(err))
}
