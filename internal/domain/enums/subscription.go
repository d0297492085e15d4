package enums

type SubscriptionPlan string

const (
	SubscriptionPlanNone     SubscriptionPlan = "none"
	SubscriptionPlanPro      SubscriptionPlan = "pro"
	SubscriptionPlanLifetime SubscriptionPlan = "lifetime"
)

type SubscriptionType string

const (
	SubscriptionTypeNone      SubscriptionType = "none"
	SubscriptionTypeTrial     SubscriptionType = "trial"
	SubscriptionTypeFreeTrial SubscriptionType = "free-trial"
	SubscriptionTypeOneTime   SubscriptionType = "one-time"
	SubscriptionTypeLifetime  SubscriptionType = "lifetime"
	SubscriptionTypeRecurring SubscriptionType = "recurring"
)

type SubscriptionStatus string

const (
	SubscriptionStatusNone    SubscriptionStatus = "none"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
	SubscriptionStatusTrial   SubscriptionStatus = "trial"
)

type PlanPeriod string

const (
	PlanPeriodMonthly  PlanPeriod = "monthly"
	PlanPeriodYearly   PlanPeriod = "yearly"
	PlanPeriodLifetime PlanPeriod = "lifetime"
)
