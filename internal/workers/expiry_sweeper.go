package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Purger is the slice of the transcript service the sweeper needs.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// ExpirySweeper periodically removes transcripts whose retention window has
// passed. Read-time expiry checks keep correctness even if the sweeper lags;
// the sweep just keeps the collection from accumulating dead records.
type ExpirySweeper struct {
	Transcripts Purger
	Interval    time.Duration
	Logger      *logrus.Logger
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	if s.Transcripts == nil {
		return errors.New("ExpirySweeper missing dependency: Transcripts must be set")
	}
	if s.Interval <= 0 {
		s.Interval = 10 * time.Minute
	}
	if s.Logger == nil {
		s.Logger = logrus.New()
	}

	go s.run(ctx)
	return nil
}

func (s *ExpirySweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := s.Transcripts.PurgeExpired(sweepCtx)
	if err != nil {
		s.Logger.WithError(err).Error("expiry sweep failed")
		return
	}
	if n > 0 {
		s.Logger.WithField("purged", n).Info("expiry sweep removed transcripts")
	}
}
