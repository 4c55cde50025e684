package crashtracker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

func Test_DryRun_LogAndReportErrors(t *testing.T) {
	mDryRunClient := &dryRunClient{}
	ctx := requestctx.SetOperatorIDInContext(context.Background(), "admin")
	ctx = tenant.SaveTenantInContext(ctx, &tenant.Tenant{TenantID: "acme"})

	buf := new(strings.Builder)
	log.DefaultLogger.SetOutput(buf)
	log.DefaultLogger.SetLevel(log.InfoLevel)

	mDryRunClient.LogAndReportErrors(ctx, fmt.Errorf("mock error"), "approving tenant")

	assert.Contains(t, buf.String(), "[DRY_RUN Crash Reporter] approving tenant: mock error")
	assert.Contains(t, buf.String(), "operator_id=admin")
	assert.Contains(t, buf.String(), "tenant_id=acme")
}

func Test_DryRun_LogAndReportMessages(t *testing.T) {
	mDryRunClient := &dryRunClient{}

	buf := new(strings.Builder)
	log.DefaultLogger.SetOutput(buf)
	log.DefaultLogger.SetLevel(log.InfoLevel)

	mDryRunClient.LogAndReportMessages(context.Background(), "mock message")

	assert.Contains(t, buf.String(), "mock message")
	assert.Contains(t, buf.String(), "operator_id=system")
	assert.NotContains(t, buf.String(), "tenant_id")
}

func Test_DryRun_environmentField(t *testing.T) {
	client, err := NewDryRunClient("staging")
	require.NoError(t, err)

	buf := new(strings.Builder)
	log.DefaultLogger.SetOutput(buf)
	log.DefaultLogger.SetLevel(log.InfoLevel)

	client.Clone().LogAndReportMessages(context.Background(), "tenant acme approved")

	assert.Contains(t, buf.String(), "environment=staging")
	assert.Contains(t, buf.String(), "tenant acme approved")
}

func Test_DryRun_Recover(t *testing.T) {
	client := &dryRunClient{}

	buf := new(strings.Builder)
	log.DefaultLogger.SetOutput(buf)
	log.DefaultLogger.SetLevel(log.InfoLevel)

	assert.NotPanics(t, func() {
		defer client.Recover()
		panic("provisioning worker crashed")
	})
	assert.Contains(t, buf.String(), "recovered from panic: provisioning worker crashed")

	assert.True(t, client.FlushEvents(time.Second))
}
