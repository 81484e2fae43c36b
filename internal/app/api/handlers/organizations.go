package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orgsvc "github.com/nestfold/provisioning/internal/app/service/organization"
	subsvc "github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/response"
	"github.com/nestfold/provisioning/pkg/types"
)

type provisionOrganizationRequest struct {
	GroupID     string         `json:"group_id" binding:"required"`
	DisplayName string         `json:"display_name"`
	Validity    string         `json:"validity" binding:"required"`
	PlanID      *uint          `json:"plan_id"`
	Spec        types.PlanSpec `json:"spec"`
}

type updateOrganizationRequest struct {
	DisplayName    string                   `json:"display_name"`
	PlanID         uint                     `json:"plan_id"`
	Spec           types.PlanSpec           `json:"spec"`
	Status         types.SubscriptionStatus `json:"status" binding:"required"`
	ExtendDuration *string                  `json:"extend_duration"`
}

// ApiProvisionOrganization creates the group, the organization and its
// subscription in one shot.
func ApiProvisionOrganization(svc *orgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req provisionOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := svc.Provision(c.Request.Context(), orgsvc.ProvisionRequest{
			GroupID:      req.GroupID,
			DisplayName:  req.DisplayName,
			Validity:     req.Validity,
			PlanID:       req.PlanID,
			Spec:         req.Spec,
			ActingUserID: logctx.UserID(c.Request.Context()),
		})
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// ApiGetOrganization returns the organization with its subscription and
// effective plan.
func ApiGetOrganization(svc *orgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		details, err := svc.Get(c.Request.Context(), c.Param("groupID"))
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(details))
	}
}

// ApiUpdateOrganization applies a subscription edit: plan change, status
// transition, extension and rename in one request.
func ApiUpdateOrganization(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		sub, err := svc.Update(c.Request.Context(), subsvc.UpdateRequest{
			GroupID:        c.Param("groupID"),
			DisplayName:    req.DisplayName,
			PlanID:         req.PlanID,
			Spec:           req.Spec,
			Status:         req.Status,
			ExtendDuration: req.ExtendDuration,
			ActingUserID:   logctx.UserID(c.Request.Context()),
		})
		if err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// ApiDeprovisionOrganization tears the tenant down.
func ApiDeprovisionOrganization(svc *orgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Deprovision(c.Request.Context(), c.Param("groupID")); err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "deleted"}))
	}
}

func RegisterOrganizationRoutes(r gin.IRouter, orgs *orgsvc.Service, subs *subsvc.Service) {
	r.POST("/orgs", ApiProvisionOrganization(orgs))
	r.GET("/orgs/:groupID", ApiGetOrganization(orgs))
	r.PUT("/orgs/:groupID/subscription", ApiUpdateOrganization(subs))
	r.DELETE("/orgs/:groupID", ApiDeprovisionOrganization(orgs))
}
