package dashboard

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"platewatch/internal/dto"
	"platewatch/internal/logger"
)

// SimulatedBy is the processed_by value of simulated detections.
const SimulatedBy = "simulator"

// Poster submits detections.
type Poster interface {
	PostPlate(ctx context.Context, req dto.PlateRequest) (*dto.PlateResponse, error)
}

// Simulator posts synthetic detections on its own timer, independent of polling.
type Simulator struct {
	poster   Poster
	interval time.Duration
	logger   *logger.Logger
	rng      *rand.Rand
	run      string
	count    atomic.Int64
	now      func() time.Time
}

// NewSimulator creates a simulator posting every interval.
func NewSimulator(poster Poster, interval time.Duration, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.Discard()
	}
	return &Simulator{
		poster:   poster,
		interval: interval,
		logger:   log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		run:      uuid.NewString()[:4],
		now:      time.Now,
	}
}

// Next builds the next synthetic detection: confidence in [85, 100).
func (s *Simulator) Next() dto.PlateRequest {
	n := s.count.Add(1)
	confidence := s.rng.Float64()*15 + 85
	return dto.PlateRequest{
		PlateNumber: fmt.Sprintf("SIM-%s-%d", s.run, n),
		Confidence:  &confidence,
		Timestamp:   s.now().Format(time.RFC3339Nano),
		ProcessedBy: SimulatedBy,
	}
}

// Run posts a detection every interval until ctx is done. Failures are logged.
func (s *Simulator) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.logger.Info("Simulator posting every %v", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req := s.Next()
			pctx, cancel := context.WithTimeout(ctx, s.interval)
			resp, err := s.poster.PostPlate(pctx, req)
			cancel()
			if err != nil {
				s.logger.Error("Error posting simulated plate %s: %v", req.PlateNumber, err)
				continue
			}
			s.logger.Info("Simulated plate %s: %s", req.PlateNumber, resp.ActionTaken)
		}
	}
}
