package job

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/internal/metrics"
)

const defaultActiveSponsorshipInterval = time.Minute

type activeCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// ActiveSponsorshipJob periodically refreshes the active sponsorship gauge.
type ActiveSponsorshipJob struct {
	TickerJob
	counter activeCounter
	metrics *metrics.Metrics
}

// NewActiveSponsorshipJob returns nil when the job is disabled.
func NewActiveSponsorshipJob(c *conf.Job, uc *biz.SponsorshipUsecase, m *metrics.Metrics, logger log.Logger) *ActiveSponsorshipJob {
	if c == nil || c.ActiveSponsorships == nil || !c.ActiveSponsorships.Enabled {
		return nil
	}
	interval := c.ActiveSponsorships.Interval.AsDuration()
	if interval <= 0 {
		interval = defaultActiveSponsorshipInterval
	}
	return newActiveSponsorshipJob(uc, m, interval, logger)
}

func newActiveSponsorshipJob(counter activeCounter, m *metrics.Metrics, interval time.Duration, logger log.Logger) *ActiveSponsorshipJob {
	j := &ActiveSponsorshipJob{
		counter: counter,
		metrics: m,
	}
	j.TickerJob = newTickerJob("active-sponsorship-job", interval, logger, j.refresh, true)
	return j
}

func (j *ActiveSponsorshipJob) refresh(ctx context.Context) error {
	n, err := j.counter.CountActive(ctx)
	if err != nil {
		return err
	}
	j.metrics.SetActiveSponsorships(n)
	return nil
}
