package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondSuccess(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func (a *API) bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		a.fail(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func idParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
