package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	plansvc "github.com/nestfold/provisioning/internal/app/service/plan"
	"github.com/nestfold/provisioning/pkg/response"
	"github.com/nestfold/provisioning/pkg/types"
)

type createPublicPlanRequest struct {
	Name string         `json:"name" binding:"required"`
	Spec types.PlanSpec `json:"spec"`
}

// ApiListPublicPlans returns the public plan catalog.
func ApiListPublicPlans(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := svc.ListPublic(c.Request.Context())
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	}
}

// ApiCreatePublicPlan adds a plan to the public catalog.
func ApiCreatePublicPlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPublicPlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		p, err := svc.CreatePublic(c.Request.Context(), req.Name, req.Spec)
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

func RegisterPlanRoutes(r gin.IRouter, svc *plansvc.Service) {
	r.GET("/plans", ApiListPublicPlans(svc))
}
