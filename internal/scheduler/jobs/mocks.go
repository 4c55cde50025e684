package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

// CountingJob records how many times it ran. A multi-tenant CountingJob keys its runs by the tenant found in the
// context and fails when there is none.
type CountingJob struct {
	Name        string
	Interval    time.Duration
	Err         error
	MultiTenant bool

	mu   sync.Mutex
	runs map[string]int
}

func (j *CountingJob) GetName() string { return j.Name }
func (j *CountingJob) GetInterval() time.Duration { return j.Interval }
func (j *CountingJob) IsJobMultiTenant() bool { return j.MultiTenant }

func (j *CountingJob) Execute(ctx context.Context) error {
	var key string
	if j.MultiTenant {
		t, err := tenant.GetTenantFromContext(ctx)
		if err != nil {
			return err
		}
		key = t.TenantID
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.runs == nil {
		j.runs = map[string]int{}
	}
	j.runs[key]++
	return j.Err
}

// Runs returns the total number of runs, across tenants.
func (j *CountingJob) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	total := 0
	for _, n := range j.runs {
		total += n
	}
	return total
}

// RunsFor returns the number of runs for one tenant.
func (j *CountingJob) RunsFor(tenantID string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs[tenantID]
}

var _ Job = (*CountingJob)(nil)
