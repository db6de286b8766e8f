package storage

import (
	"context"

	"github.com/uptrace/bun"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// DBChecker pings the database
type DBChecker struct {
	DB *bun.DB
}

func (c DBChecker) Name() string { return "database" }

func (c DBChecker) Check(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Readiness aggregates dependency checkers
type Readiness struct {
	checkers []Checker
}

// NewReadiness returns a readiness probe over checkers
func NewReadiness(checkers ...Checker) *Readiness {
	return &Readiness{checkers: checkers}
}

// Ready returns the first failing check
func (r *Readiness) Ready(ctx context.Context) error {
	for _, ch := range r.checkers {
		if err := ch.Check(ctx); err != nil {
			return &CheckError{Name: ch.Name(), Err: err}
		}
	}
	return nil
}

// CheckError names the dependency that failed
type CheckError struct {
	Name string
	Err  error
}

func (e *CheckError) Error() string { return e.Name + ": " + e.Err.Error() }

func (e *CheckError) Unwrap() error { return e.Err }
