package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Key, e.Reason, e.Value)
}

// AggregateError collects several validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns the individual failures of err, or nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return []error{single}
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, key, reason string, value any) {
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
		}
	}

	r := c.Risk
	check(r.SafeDistance > 0, "risk.safe_distance_m", "must be positive", r.SafeDistance)
	check(r.Lookahead > 0, "risk.lookahead", "must be positive", r.Lookahead)
	check(r.Threshold >= 0 && r.Threshold <= 1, "risk.threshold", "must be within [0,1]", r.Threshold)
	check(r.Adhesion > 0, "risk.adhesion", "must be positive", r.Adhesion)
	check(r.KinematicWeight >= 0 && r.FeedWeight >= 0, "risk.kinematic_weight", "weights must not be negative", r.KinematicWeight)
	check(r.KinematicWeight+r.FeedWeight > 0, "risk.feed_weight", "weights must not both be zero", r.FeedWeight)
	check(r.MonteCarlo.Samples >= 0, "risk.monte_carlo.samples", "must not be negative", r.MonteCarlo.Samples)
	check(r.MonteCarlo.StdDev >= 0, "risk.monte_carlo.std_dev", "must not be negative", r.MonteCarlo.StdDev)
	check(r.MonteCarlo.Blend >= 0 && r.MonteCarlo.Blend <= 1, "risk.monte_carlo.blend", "must be within [0,1]", r.MonteCarlo.Blend)

	check(c.Arbiter.Workers >= 0, "arbiter.workers", "must not be negative", c.Arbiter.Workers)
	check(c.Arbiter.CriticalTTC >= 0, "arbiter.critical_ttc", "must not be negative", c.Arbiter.CriticalTTC)

	switch c.Blocked.Policy {
	case "", "permanent", "release_on_clear":
	case "ttl":
		check(c.Blocked.TTL > 0, "blocked.ttl", "must be positive with the ttl policy", c.Blocked.TTL)
	default:
		check(false, "blocked.policy", "must be permanent, release_on_clear or ttl", c.Blocked.Policy)
	}

	check(c.Spawn.Interval >= 0, "spawn.interval", "must not be negative", c.Spawn.Interval)
	check(c.Spawn.MaxTrains >= 0, "spawn.max_trains", "must not be negative", c.Spawn.MaxTrains)

	switch c.Feed.Backend {
	case "", "none", "memory", "redis":
	default:
		check(false, "feed.backend", "must be none, memory or redis", c.Feed.Backend)
	}
	check(c.Feed.Backend != "memory" || c.Feed.File != "", "feed.file", "required with the memory backend", nil)
	check(c.Feed.Backend != "redis" || c.Feed.Redis.Addr != "", "feed.redis.addr", "required with the redis backend", nil)

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		check(false, "log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	check(c.Log.Buffer >= 0, "log.buffer", "must not be negative", c.Log.Buffer)

	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}
