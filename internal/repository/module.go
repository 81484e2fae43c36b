package repository

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewPlanRepository),
	fx.Provide(NewOrganizationRepository),
	fx.Provide(NewSubscriptionRepository),
	fx.Provide(NewHistoryRepository),
)
