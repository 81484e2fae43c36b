package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestfold/provisioning/internal/app/service/membership"
	"github.com/nestfold/provisioning/pkg/response"
)

type joinGroupRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ApiJoinGroup adds a user to the organization's group, subject to the
// plan member cap.
func ApiJoinGroup(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		if err := svc.Join(c.Request.Context(), req.UserID, c.Param("groupID")); err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "joined"}))
	}
}

// ApiLeaveGroup removes a user from the organization's group.
func ApiLeaveGroup(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Leave(c.Request.Context(), c.Param("uid"), c.Param("groupID")); err != nil {
			status, code := response.FromError(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "left"}))
	}
}

func RegisterMembershipRoutes(r gin.IRouter, svc *membership.Service) {
	r.POST("/orgs/:groupID/members", ApiJoinGroup(svc))
	r.DELETE("/orgs/:groupID/members/:uid", ApiLeaveGroup(svc))
}
