package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// Meta carries pagination metadata
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ErrorInfo is the error payload inside the envelope
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Success returns a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessWithMeta returns a 200 response with pagination metadata
func SuccessWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// Created returns a 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Fail maps a service error onto the envelope. Business errors keep their
// kind, code, message and (for blocked) reason; anything else is a 500.
func Fail(c *gin.Context, err error) {
	if e, ok := AsError(err); ok {
		c.JSON(statusFor(e.Kind), Response{
			Success: false,
			Error:   &ErrorInfo{Code: e.Code, Message: e.Message, Reason: e.Reason},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &ErrorInfo{Code: "internal_error", Message: "internal server error"},
	})
}

// BadRequest returns a 400 for malformed request bodies
func BadRequest(c *gin.Context, err error) {
	info := &ErrorInfo{Code: string(KindValidation), Message: "invalid request body"}
	if err != nil {
		info.Reason = err.Error()
	}
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: info})
}

// Unauthorized returns a 401
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   &ErrorInfo{Code: "unauthorized", Message: message},
	})
}

func statusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden, KindBlocked:
		return http.StatusForbidden
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
