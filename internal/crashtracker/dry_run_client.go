package crashtracker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
)

const dryRunPrefix = "[DRY_RUN Crash Reporter]"

// dryRunClient writes the reports to the log instead of sending them anywhere.
type dryRunClient struct {
	environment string
}

func (c *dryRunClient) logger(ctx context.Context) *log.Entry {
	fields := tagsAsFields(reportTags(ctx))
	if c.environment != "" {
		fields["environment"] = c.environment
	}
	return log.Ctx(ctx).WithFields(fields)
}

func (c *dryRunClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	if msg != "" {
		err = fmt.Errorf("%s: %w", msg, err)
	}
	c.logger(ctx).Errorf("%s %+v", dryRunPrefix, err)
}

func (c *dryRunClient) LogAndReportMessages(ctx context.Context, msg string) {
	c.logger(ctx).Infof("%s %s", dryRunPrefix, msg)
}

// FlushEvents has nothing buffered to flush.
func (c *dryRunClient) FlushEvents(time.Duration) bool {
	return true
}

// Recover must be deferred directly. The panic is logged with its stack and swallowed.
func (c *dryRunClient) Recover() {
	if r := recover(); r != nil {
		c.logger(context.Background()).Errorf("%s recovered from panic: %v\n%s", dryRunPrefix, r, debug.Stack())
	}
}

func (c *dryRunClient) Clone() CrashTrackerClient {
	return &dryRunClient{environment: c.environment}
}

func NewDryRunClient(environment string) (*dryRunClient, error) {
	return &dryRunClient{environment: environment}, nil
}

var _ CrashTrackerClient = (*dryRunClient)(nil)
