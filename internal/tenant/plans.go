package tenant

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionPlan string

const (
	TrialPlan        SubscriptionPlan = "trial"
	BasicPlan        SubscriptionPlan = "basic"
	ProfessionalPlan SubscriptionPlan = "professional"
	EnterprisePlan   SubscriptionPlan = "enterprise"
)

const PlanCurrency = "USD"

type PlanDetails struct {
	Plan          SubscriptionPlan `json:"plan"`
	DisplayName   string           `json:"display_name"`
	DurationDays  int              `json:"duration_days"`
	Price         decimal.Decimal  `json:"price"`
	Currency      string           `json:"currency"`
	MaxWarehouses int              `json:"max_warehouses"`
	MaxUsers      int              `json:"max_users"`
}

// FormattedPrice renders the price with two decimal places, e.g. "49.00 USD".
func (p PlanDetails) FormattedPrice() string {
	return p.Price.StringFixed(2) + " " + p.Currency
}

var planCatalog = []PlanDetails{
	{Plan: TrialPlan, DisplayName: "Trial", DurationDays: 14, Price: decimal.Zero, Currency: PlanCurrency, MaxWarehouses: 1, MaxUsers: 3},
	{Plan: BasicPlan, DisplayName: "Basic", DurationDays: 30, Price: decimal.RequireFromString("49.00"), Currency: PlanCurrency, MaxWarehouses: 1, MaxUsers: 10},
	{Plan: ProfessionalPlan, DisplayName: "Professional", DurationDays: 30, Price: decimal.RequireFromString("149.00"), Currency: PlanCurrency, MaxWarehouses: 5, MaxUsers: 50},
	{Plan: EnterprisePlan, DisplayName: "Enterprise", DurationDays: 365, Price: decimal.RequireFromString("4990.00"), Currency: PlanCurrency, MaxWarehouses: 0, MaxUsers: 0},
}

// Plans returns the plan catalog ordered from the cheapest to the most expensive plan. A zero limit means unlimited.
func Plans() []PlanDetails {
	plans := make([]PlanDetails, len(planCatalog))
	copy(plans, planCatalog)
	return plans
}

func PlanNames() []SubscriptionPlan {
	names := make([]SubscriptionPlan, 0, len(planCatalog))
	for _, p := range planCatalog {
		names = append(names, p.Plan)
	}
	return names
}

func (p SubscriptionPlan) Details() (PlanDetails, bool) {
	for _, details := range planCatalog {
		if details.Plan == p {
			return details, true
		}
	}
	return PlanDetails{}, false
}

func (p SubscriptionPlan) IsValid() bool {
	_, ok := p.Details()
	return ok
}

// DefaultEnd returns the subscription end date for a subscription starting at start. Unknown plans get the trial
// duration.
func (p SubscriptionPlan) DefaultEnd(start time.Time) time.Time {
	details, ok := p.Details()
	if !ok {
		details, _ = TrialPlan.Details()
	}
	return start.AddDate(0, 0, details.DurationDays)
}
