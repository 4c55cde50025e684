package crashtracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
)

// CrashTrackerClient logs unexpected errors and reports them to an external tracker, tagged with the operator and the
// tenant of the request.
type CrashTrackerClient interface {
	LogAndReportErrors(ctx context.Context, err error, msg string)
	LogAndReportMessages(ctx context.Context, msg string)
	FlushEvents(waitTime time.Duration) bool
	Recover()
	Clone() CrashTrackerClient
}

type CrashTrackerType string

const (
	CrashTrackerTypeSentry CrashTrackerType = "SENTRY"
	// CrashTrackerTypeDryRun only logs, for local development.
	CrashTrackerTypeDryRun CrashTrackerType = "DRY_RUN"
)

func ParseCrashTrackerType(crashTrackerTypeStr string) (CrashTrackerType, error) {
	ctType := CrashTrackerType(strings.ToUpper(strings.TrimSpace(crashTrackerTypeStr)))

	switch ctType {
	case CrashTrackerTypeSentry, CrashTrackerTypeDryRun:
		return ctType, nil
	default:
		return "", fmt.Errorf("invalid crash tracker type %q", ctType)
	}
}

type CrashTrackerOptions struct {
	CrashTrackerType CrashTrackerType
	Environment      string
	GitCommit        string
	SentryDSN        string
}

func GetClient(ctx context.Context, opts CrashTrackerOptions) (CrashTrackerClient, error) {
	switch opts.CrashTrackerType {
	case CrashTrackerTypeSentry:
		log.Ctx(ctx).Infof("Using %q crash tracker", opts.CrashTrackerType)
		return NewSentryClient(opts.SentryDSN, opts.Environment, opts.GitCommit)
	case CrashTrackerTypeDryRun:
		log.Ctx(ctx).Warnf("Using %q crash tracker", opts.CrashTrackerType)
		return NewDryRunClient(opts.Environment)
	default:
		return nil, fmt.Errorf("unknown crash tracker type: %q", opts.CrashTrackerType)
	}
}
