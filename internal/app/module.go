package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/nestfold/provisioning/internal/app/api/server"
	"github.com/nestfold/provisioning/internal/app/service/membership"
	"github.com/nestfold/provisioning/internal/app/service/organization"
	"github.com/nestfold/provisioning/internal/app/service/plan"
	"github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/internal/app/service/sweeper"
	"github.com/nestfold/provisioning/internal/platform/db"
	"github.com/nestfold/provisioning/internal/platform/directory"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/config"
	"github.com/nestfold/provisioning/pkg/logger"
	"github.com/nestfold/provisioning/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	directory.Module,
	repository.Module,
	server.Module,
	plan.Module,
	subscription.Module,
	organization.Module,
	membership.Module,
	sweeper.Module,
)
