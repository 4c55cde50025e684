package crashtracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stellar/go-stellar-sdk/support/log"
)

type hubSentryInterface interface {
	CaptureException(exception error) *sentry.EventID
	CaptureMessage(message string) *sentry.EventID
	WithScope(f func(scope *sentry.Scope))
	Clone() *sentry.Hub
	Flush(timeout time.Duration) bool
	Recover(err interface{}) *sentry.EventID
}

var _ hubSentryInterface = (*sentry.Hub)(nil)

type sentryClient struct {
	hub hubSentryInterface
}

// LogAndReportErrors logs err, prefixed by msg, and captures it in sentry tagged with the operator and the tenant
// found in ctx.
func (s *sentryClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	if errors.Is(err, context.Canceled) {
		log.Ctx(ctx).Warn("context canceled, not reporting error to sentry")
		return
	}

	if msg != "" {
		err = fmt.Errorf("%s: %w", msg, err)
	}
	tags := reportTags(ctx)
	log.Ctx(ctx).WithFields(tagsAsFields(tags)).WithStack(err).Errorf("%+v", err)

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *sentryClient) LogAndReportMessages(ctx context.Context, msg string) {
	tags := reportTags(ctx)
	log.Ctx(ctx).WithFields(tagsAsFields(tags)).Info(msg)

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureMessage(msg)
	})
}

// FlushEvents waits up to waitTime for the buffered events to be sent.
func (s *sentryClient) FlushEvents(waitTime time.Duration) bool {
	return s.hub.Flush(waitTime)
}

// Recover captures an unhandled panic. It must be deferred.
func (s *sentryClient) Recover() {
	if err := recover(); err != nil {
		s.hub.Recover(err)
	}
}

// Clone returns a client with its own hub, to be used by another goroutine.
func (s *sentryClient) Clone() CrashTrackerClient {
	return &sentryClient{hub: s.hub.Clone()}
}

func NewSentryClient(sentryDSN string, environment string, gitCommit string) (*sentryClient, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         sentryDSN,
		Release:     gitCommit,
		Environment: environment,
	})
	if err != nil {
		return nil, fmt.Errorf("error setting up Sentry: %w", err)
	}

	return &sentryClient{hub: sentry.CurrentHub()}, nil
}

var _ CrashTrackerClient = (*sentryClient)(nil)
