package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"simops/internal/logger"
	"simops/internal/pipeline"
)

// Exporter is satisfied by *pipeline.ExportService.
type Exporter interface {
	Run(ctx context.Context) (pipeline.RunResult, error)
}

type Service struct {
	exporter Exporter
	interval time.Duration
	log      *zerolog.Logger
}

func NewService(exporter Exporter, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{exporter: exporter, interval: interval, log: logger.Named("scheduler")}
}

// Run exports once immediately and then every interval until ctx is done.
// A failed cycle is logged and the loop keeps going.
func (s *Service) Run(ctx context.Context) error {
	for {
		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	started := time.Now()
	res, err := s.exporter.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("export cycle failed")
		return
	}
	s.log.Info().
		Str("run_id", res.RunID).
		Int("files", len(res.Written)).
		Int("failed", len(res.Failed())).
		Dur("took", time.Since(started)).
		Msg("export cycle done")
}
