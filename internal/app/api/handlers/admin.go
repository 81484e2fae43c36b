package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	plansvc "github.com/nestfold/provisioning/internal/app/service/plan"
	subsvc "github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/internal/app/service/sweeper"
	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/response"
)

type sweepResponse struct {
	Expired int64 `json:"expired"`
}

type listHistoryResponse struct {
	Items []*models.SubscriptionHistory `json:"items"`
	Total int64                         `json:"total"`
}

// ApiSweep triggers one expiration sweep outside the schedule.
func ApiSweep(sw *sweeper.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := sw.Run(c.Request.Context())
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sweepResponse{Expired: n}))
	}
}

// ApiListHistory queries the subscription audit log. Filters follow the
// common filter shape, e.g. {"key":"subscription_id","eq":3}.
func ApiListHistory(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req repository.ListHistoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		items, total, err := svc.ListHistory(c.Request.Context(), &req)
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}

		c.JSON(http.StatusOK, response.OKT(listHistoryResponse{Items: items, Total: total}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, sw *sweeper.Sweeper, subs *subsvc.Service, plans *plansvc.Service) {
	r.POST("/sweep", ApiSweep(sw))
	r.POST("/subscriptions/history", ApiListHistory(subs))
	r.POST("/plans", ApiCreatePublicPlan(plans))
}
