package tenant

import (
	"fmt"
	"strings"
	"time"

	"github.com/72mo2c/pero-system-sub002/internal/utils"
	"github.com/72mo2c/pero-system-sub002/internal/validators"
)

// TenantInsert holds the fields an operator provides when registering a tenant.
type TenantInsert struct {
	TenantID          string           `json:"tenant_id"`
	CompanyName       string           `json:"company_name"`
	CompanyNameEN     *string          `json:"company_name_en"`
	ContactPerson     string           `json:"contact_person"`
	Email             string           `json:"email"`
	Phone             *string          `json:"phone"`
	Address           *string          `json:"address"`
	City              *string          `json:"city"`
	SubscriptionPlan  SubscriptionPlan `json:"subscription_plan"`
	SubscriptionStart *time.Time       `json:"subscription_start"`
	SubscriptionEnd   *time.Time       `json:"subscription_end"`
	CreatedBy         string           `json:"-"`
}

// Normalize trims the free text fields, lowercases the tenant ID and the email and clears blank optional fields.
func (ti *TenantInsert) Normalize() {
	ti.TenantID = utils.TrimAndLower(ti.TenantID)
	ti.Email = utils.TrimAndLower(ti.Email)
	ti.CompanyName = strings.TrimSpace(ti.CompanyName)
	ti.ContactPerson = strings.TrimSpace(ti.ContactPerson)
	ti.CreatedBy = strings.TrimSpace(ti.CreatedBy)
	ti.SubscriptionPlan = SubscriptionPlan(utils.TrimAndLower(string(ti.SubscriptionPlan)))

	ti.CompanyNameEN = utils.NilIfEmpty(utils.ValueOrEmpty(ti.CompanyNameEN))
	ti.Phone = utils.NilIfEmpty(utils.ValueOrEmpty(ti.Phone))
	ti.Address = utils.NilIfEmpty(utils.ValueOrEmpty(ti.Address))
	ti.City = utils.NilIfEmpty(utils.ValueOrEmpty(ti.City))

	if ti.SubscriptionStart != nil {
		start := utils.TruncateToDate(*ti.SubscriptionStart)
		ti.SubscriptionStart = &start
	}
	if ti.SubscriptionEnd != nil {
		end := utils.TruncateToDate(*ti.SubscriptionEnd)
		ti.SubscriptionEnd = &end
	}
}

// Validate evaluates every field rule and returns a *ValidationError listing all of the violations, or nil.
func (ti *TenantInsert) Validate() error {
	v := validators.NewValidator()

	v.Check(ti.TenantID != "", "tenant_id", "tenant_id is required")
	if ti.TenantID != "" {
		v.Check(IsValidTenantID(ti.TenantID), "tenant_id", "tenant_id must be 3 to 40 characters long, start with a letter and contain only lower case letters, digits and underscores")
	}

	checkRequiredLength(v, "company_name", ti.CompanyName, 2, 255)
	checkRequiredLength(v, "contact_person", ti.ContactPerson, 2, 255)

	if ti.CompanyNameEN != nil {
		v.CheckError(utils.ValidateLength(*ti.CompanyNameEN, 2, 255), "company_name_en", "")
	}

	v.Check(ti.Email != "", "email", "email is required")
	if ti.Email != "" {
		v.CheckError(utils.ValidateEmail(ti.Email), "email", "")
		v.CheckError(utils.ValidateLength(ti.Email, 0, 255), "email", "")
	}

	if ti.Phone != nil {
		v.CheckError(utils.ValidatePhoneNumber(*ti.Phone), "phone", "")
	}
	if ti.Address != nil {
		v.CheckError(utils.ValidateLength(*ti.Address, 0, 500), "address", "")
	}
	if ti.City != nil {
		v.CheckError(utils.ValidateLength(*ti.City, 0, 100), "city", "")
	}

	v.Check(ti.SubscriptionPlan.IsValid(), "subscription_plan", fmt.Sprintf("subscription_plan must be one of %v", PlanNames()))

	if ti.SubscriptionStart != nil && ti.SubscriptionEnd != nil {
		v.Check(!ti.SubscriptionEnd.Before(*ti.SubscriptionStart), "subscription_end", "subscription_end cannot be before subscription_start")
	}

	v.Check(ti.CreatedBy != "", "created_by", "created_by is required")

	if v.HasErrors() {
		return &ValidationError{Fields: v.FieldErrors()}
	}
	return nil
}

// subscriptionDates returns the start and end dates to persist, falling back to today and to the plan default
// duration.
func (ti *TenantInsert) subscriptionDates(today time.Time) (time.Time, time.Time) {
	start := today
	if ti.SubscriptionStart != nil {
		start = *ti.SubscriptionStart
	}

	end := ti.SubscriptionPlan.DefaultEnd(start)
	if ti.SubscriptionEnd != nil {
		end = *ti.SubscriptionEnd
	}
	return start, end
}

func checkRequiredLength(v *validators.Validator, field, value string, minLength, maxLength int) {
	if value == "" {
		v.AddError(field, field+" is required")
		return
	}
	v.CheckError(utils.ValidateLength(value, minLength, maxLength), field, "")
}
