package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestfold/provisioning/pkg/response"
)

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "ok"}))
}

func RegisterHealthRoutes(r gin.IRouter) {
	r.GET("/healthz", Healthz)
}
