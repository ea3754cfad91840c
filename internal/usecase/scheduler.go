package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"VNSniper/pkg/logger"
)

// SchedulerConfig lists the local wall-clock times a screening run
// fires at. Times are "HH:MM" in the exchange timezone.
type SchedulerConfig struct {
	Timezone string   // defaults to Asia/Ho_Chi_Minh
	RunAt    []string // defaults to midday and post-close
}

// Scheduler triggers screening runs at the configured exchange times,
// weekdays only.
type Scheduler struct {
	screener *Screener
	log      *logger.Logger

	loc   *time.Location
	runAt []runTime

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type runTime struct {
	hour, minute int
}

func NewScheduler(cfg SchedulerConfig, screener *Screener, log *logger.Logger) (*Scheduler, error) {
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Ho_Chi_Minh"
	}
	if len(cfg.RunAt) == 0 {
		cfg.RunAt = []string{"11:45", "15:15"}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}

	s := &Scheduler{screener: screener, log: log, loc: loc}
	for _, at := range cfg.RunAt {
		var rt runTime
		if _, err := fmt.Sscanf(at, "%d:%d", &rt.hour, &rt.minute); err != nil {
			return nil, fmt.Errorf("scheduler time %q: %w", at, err)
		}
		if rt.hour < 0 || rt.hour > 23 || rt.minute < 0 || rt.minute > 59 {
			return nil, fmt.Errorf("scheduler time %q out of range", at)
		}
		s.runAt = append(s.runAt, rt)
	}
	sort.Slice(s.runAt, func(i, j int) bool {
		if s.runAt[i].hour != s.runAt[j].hour {
			return s.runAt[i].hour < s.runAt[j].hour
		}
		return s.runAt[i].minute < s.runAt[j].minute
	})
	return s, nil
}

// Start launches the scheduling loop. Runs fire sequentially; a slow
// run delays, never overlaps, the next one.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		next := s.Next(time.Now().In(s.loc))
		s.log.Info("next scheduled run", logger.String("at", next.Format(time.RFC3339)))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		if _, err := s.screener.RunFullAnalysis(ctx, RunParams{}); err != nil {
			s.log.Error("scheduled run failed", logger.Error(err))
		}
	}
}

// Next returns the first configured run time strictly after now,
// skipping weekends.
func (s *Scheduler) Next(now time.Time) time.Time {
	now = now.In(s.loc)
	for day := 0; ; day++ {
		d := now.AddDate(0, 0, day)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		for _, rt := range s.runAt {
			at := time.Date(d.Year(), d.Month(), d.Day(), rt.hour, rt.minute, 0, 0, s.loc)
			if at.After(now) {
				return at
			}
		}
	}
}
