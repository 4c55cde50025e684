package validators

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/72mo2c/pero-system-sub002/internal/tenant"
	corevalidators "github.com/72mo2c/pero-system-sub002/internal/validators"
)

type TenantRequest struct {
	TenantID           string  `json:"tenant_id"`
	CompanyName        string  `json:"company_name"`
	CompanyNameEN      *string `json:"company_name_en"`
	ContactPerson      string  `json:"contact_person"`
	Email              string  `json:"email"`
	Phone              *string `json:"phone"`
	Address            *string `json:"address"`
	City               *string `json:"city"`
	SubscriptionPlan   string  `json:"subscription_plan"`
	SubscriptionStart  *string `json:"subscription_start"`
	SubscriptionEnd    *string `json:"subscription_end"`
	ApproveImmediately bool    `json:"approve_immediately"`
}

type ExtendSubscriptionRequest struct {
	Days int `json:"days"`
}

type TenantValidator struct {
	*corevalidators.Validator
}

func NewTenantValidator() *TenantValidator {
	return &TenantValidator{Validator: corevalidators.NewValidator()}
}

// ValidateCreateTenantRequest turns the request into a normalized tenant insert owned by actor. Every violated rule
// is collected, and nil is returned when there is any.
func (tv *TenantValidator) ValidateCreateTenantRequest(reqBody *TenantRequest, actor string) *tenant.TenantInsert {
	tv.Check(reqBody != nil, "body", "request body is empty")
	if tv.HasErrors() {
		return nil
	}

	ti := &tenant.TenantInsert{
		TenantID:          reqBody.TenantID,
		CompanyName:       reqBody.CompanyName,
		CompanyNameEN:     reqBody.CompanyNameEN,
		ContactPerson:     reqBody.ContactPerson,
		Email:             reqBody.Email,
		Phone:             reqBody.Phone,
		Address:           reqBody.Address,
		City:              reqBody.City,
		SubscriptionPlan:  tenant.SubscriptionPlan(reqBody.SubscriptionPlan),
		SubscriptionStart: tv.parseDate("subscription_start", reqBody.SubscriptionStart),
		SubscriptionEnd:   tv.parseDate("subscription_end", reqBody.SubscriptionEnd),
		CreatedBy:         actor,
	}
	ti.Normalize()

	var validationErr *tenant.ValidationError
	if err := ti.Validate(); errors.As(err, &validationErr) {
		for field, msg := range validationErr.Fields {
			tv.AddError(field, msg)
		}
	}

	if tv.HasErrors() {
		return nil
	}
	return ti
}

// ValidateExtendSubscriptionRequest returns the number of days to extend the subscription by.
func (tv *TenantValidator) ValidateExtendSubscriptionRequest(reqBody *ExtendSubscriptionRequest) int {
	tv.Check(reqBody != nil, "body", "request body is empty")
	if tv.HasErrors() {
		return 0
	}

	tv.Check(
		reqBody.Days >= tenant.MinExtensionDays && reqBody.Days <= tenant.MaxExtensionDays,
		"days",
		fmt.Sprintf("days must be between %d and %d", tenant.MinExtensionDays, tenant.MaxExtensionDays),
	)
	if tv.HasErrors() {
		return 0
	}
	return reqBody.Days
}

func (tv *TenantValidator) parseDate(field string, value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(*value))
	if err != nil {
		tv.AddError(field, "invalid date format. valid format is 'YYYY-MM-DD'")
		return nil
	}
	return &date
}
