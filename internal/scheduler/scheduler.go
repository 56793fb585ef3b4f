// Package scheduler runs configured scan jobs: a premarket pass at a fixed
// time and intraday passes on an interval. Jobs come from a YAML file in
// the shape of conf/scheduler.yaml.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
)

// Job is one scheduled scan.
type Job struct {
	Name        string   `yaml:"name"`
	Mode        string   `yaml:"mode"`     // premarket | intraday | rebuild
	At          string   `yaml:"at"`       // "09:20" wall time, premarket style
	Every       string   `yaml:"every"`    // "15m" interval, intraday style
	Enabled     bool     `yaml:"enabled"`
	Universe    []string `yaml:"universe"` // instrument codes; empty = default universe
	Description string   `yaml:"description"`
}

// Config is the scheduler file shape.
type Config struct {
	Jobs   []Job        `yaml:"jobs"`
	Global GlobalConfig `yaml:"global"`
}

// GlobalConfig holds scheduler-wide settings.
type GlobalConfig struct {
	Timezone string   `yaml:"timezone"`
	Universe []string `yaml:"universe"`
}

// LoadConfig reads and validates a scheduler config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheduler config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse scheduler config: %w", err)
	}
	for i := range cfg.Jobs {
		if err := cfg.Jobs[i].validate(); err != nil {
			return nil, fmt.Errorf("job %q: %w", cfg.Jobs[i].Name, err)
		}
	}
	return &cfg, nil
}

func (j *Job) validate() error {
	switch snapshot.Mode(j.Mode) {
	case snapshot.ModePremarket, snapshot.ModeIntraday, snapshot.ModeRebuild:
	default:
		return fmt.Errorf("unknown mode %q", j.Mode)
	}
	if j.At == "" && j.Every == "" {
		return fmt.Errorf("needs either at: or every:")
	}
	if j.At != "" {
		if _, err := time.Parse("15:04", j.At); err != nil {
			return fmt.Errorf("at %q is not HH:MM", j.At)
		}
	}
	if j.Every != "" {
		if _, err := time.ParseDuration(j.Every); err != nil {
			return fmt.Errorf("every %q is not a duration", j.Every)
		}
	}
	return nil
}

// NextRun computes when the job fires next, after now.
func (j *Job) NextRun(now time.Time) time.Time {
	if j.At != "" {
		at, _ := time.Parse("15:04", j.At)
		next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
	every, _ := time.ParseDuration(j.Every)
	return now.Add(every)
}

// Runner executes a job; the cmd layer wires it to the scan pipeline.
type Runner func(ctx context.Context, job Job) error

// Scheduler ticks through enabled jobs until its context ends.
type Scheduler struct {
	cfg    *Config
	runner Runner
}

// New creates a scheduler over the config.
func New(cfg *Config, runner Runner) *Scheduler {
	return &Scheduler{cfg: cfg, runner: runner}
}

// EnabledJobs returns the jobs that will run.
func (s *Scheduler) EnabledJobs() []Job {
	var jobs []Job
	for _, j := range s.cfg.Jobs {
		if j.Enabled {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// RunJobNow executes one job by name, regardless of schedule.
func (s *Scheduler) RunJobNow(ctx context.Context, name string) error {
	for _, j := range s.cfg.Jobs {
		if j.Name == name {
			return s.runner(ctx, j)
		}
	}
	return fmt.Errorf("no job named %q", name)
}

// Run blocks, firing each enabled job at its schedule, until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	jobs := s.EnabledJobs()
	if len(jobs) == 0 {
		return fmt.Errorf("no enabled jobs")
	}
	log.Info().Int("jobs", len(jobs)).Msg("scheduler started")

	timers := make([]*time.Timer, len(jobs))
	fire := make(chan int, len(jobs))
	now := time.Now()
	for i, j := range jobs {
		idx := i
		timers[i] = time.AfterFunc(j.NextRun(now).Sub(now), func() { fire <- idx })
	}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case idx := <-fire:
			job := jobs[idx]
			log.Info().Str("job", job.Name).Msg("job firing")
			if err := s.runner(ctx, job); err != nil {
				log.Error().Err(err).Str("job", job.Name).Msg("job failed")
			}
			next := job.NextRun(time.Now())
			timers[idx].Reset(time.Until(next))
			log.Info().Str("job", job.Name).Time("next_run", next).Msg("job rescheduled")
		}
	}
}
