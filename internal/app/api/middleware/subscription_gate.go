package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/platform/directory"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/config"
	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/response"
)

// SubscriptionGate refuses requests from users whose organization has no
// valid subscription. Administrators bypass the gate, whether flagged in
// the directory or listed in the configuration. Requests without a user
// identity pass through; the gated handlers decide what anonymous access
// means for them.
func SubscriptionGate(
	cfg *config.Config,
	dir directory.Directory,
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		uid := logctx.UserID(ctx)
		if uid == "" {
			c.Next()
			return
		}

		if lo.Contains(cfg.AdminUsers, uid) {
			c.Next()
			return
		}
		if isAdmin, err := dir.IsAdmin(ctx, uid); err == nil && isAdmin {
			c.Next()
			return
		}

		org, err := orgs.FindByUserID(ctx, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				forbid(c, "user is not a member of a valid organization")
				return
			}
			status, code := response.FromError(err)
			c.AbortWithStatusJSON(status, response.ErrorT(code, err.Error()))
			return
		}

		sub, err := subs.FindByOrganizationID(ctx, org.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				forbid(c, "organization has no subscription, please contact your administrator")
				return
			}
			status, code := response.FromError(err)
			c.AbortWithStatusJSON(status, response.ErrorT(code, err.Error()))
			return
		}

		if sub.EndedAt == nil {
			forbid(c, "subscription has an undetermined ending time, please contact your administrator")
			return
		}
		if !sub.EndedAt.After(time.Now().UTC()) {
			forbid(c, "subscription has expired, please contact your administrator")
			return
		}

		c.Next()
	}
}

func forbid(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT(response.APIResponseCodeForbidden, msg))
}
