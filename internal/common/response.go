package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes the standard success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

// Created is OK with a 201 status, used by resource-creating endpoints.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

// Fail writes the standard error envelope with a stable business code.
func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
