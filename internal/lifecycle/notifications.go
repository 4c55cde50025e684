package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/htmltemplate"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

// activationChannels lists the channels tried, in order, to tell a tenant contact their workspace is active.
var activationChannels = []message.MessageChannel{message.MessageChannelEmail, message.MessageChannelSMS}

func tenantActivatedMessage(t *tenant.Tenant, platformName string) (message.Message, error) {
	body, err := htmltemplate.ExecuteHTMLTemplateForTenantActivatedEmail(htmltemplate.TenantActivatedEmailTemplate{
		ContactPerson:    t.ContactPerson,
		CompanyName:      t.CompanyName,
		TenantID:         t.TenantID,
		SubscriptionPlan: string(t.SubscriptionPlan),
		SubscriptionEnd:  t.SubscriptionEnd.Format(time.DateOnly),
		PlatformName:     platformName,
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("executing tenant activated template: %w", err)
	}

	smsBody := fmt.Sprintf("%s: your workspace %s is ready. Your %s subscription runs until %s.",
		platformName, t.TenantID, t.SubscriptionPlan, t.SubscriptionEnd.Format(time.DateOnly))

	return message.Message{
		ToEmail:       t.Email,
		ToPhoneNumber: utils.ValueOrEmpty(t.Phone),
		Title:         fmt.Sprintf("Your %s workspace is ready", platformName),
		Body:          body,
		SMSBody:       smsBody,
	}, nil
}

// notifyActivated notifies the tenant contact on the first of activationChannels that delivers. Failures are logged
// and never fail the approval.
func (m *Manager) notifyActivated(ctx context.Context, t *tenant.Tenant) {
	if m.messageDispatcher == nil {
		return
	}

	msg, err := tenantActivatedMessage(t, m.platformName)
	if err != nil {
		log.Ctx(ctx).Errorf("building activation message for tenant %s: %v", t.TenantID, err)
		return
	}

	messengerType, err := m.messageDispatcher.SendMessage(ctx, msg, activationChannels)
	if err != nil {
		log.Ctx(ctx).Warnf("sending activation message for tenant %s: %v", t.TenantID, err)
		return
	}
	log.Ctx(ctx).Infof("Notified tenant %s of its activation through %s", t.TenantID, messengerType)
}
