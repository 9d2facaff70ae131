package crawl

import (
	"cqscraper/internal/components/telemetry"
	"fmt"
)

const report_steps_run = "steps.run"

// Steps runs the sub-fetches of one record. A failing step is reported and leaves its
// field empty, only a fatal failure is kept and stops the remaining steps.
type Steps struct {
	tel   telemetry.API
	item  string
	fatal error
	// Failed lists the names of the steps that failed.
	Failed []string
}

func NewSteps(tel telemetry.API, item string) *Steps {
	return &Steps{tel: tel, item: item}
}

// Run runs fn unless an earlier step failed fatally, it reports whether fn succeeded.
func (s *Steps) Run(name string, fn func() error) bool {
	if s.fatal != nil {
		return false
	}
	err := protectStep(fn)
	if err == nil {
		return true
	}

	s.Failed = append(s.Failed, name)
	if KindOf(err) == KindFatal {
		s.fatal = fmt.Errorf("%s: %w", name, err)
		s.tel.ReportBroken(report_steps_run, err, s.item, name)
		return false
	}
	s.tel.ReportWarning(report_steps_run, err, s.item, name)
	return false
}

// Err returns the fatal error that stopped the steps, if any.
func (s *Steps) Err() error {
	return s.fatal
}

func protectStep(fn func() error) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return fn()
}

// Step runs fn as a step and returns its value, or the zero value if it failed.
func Step[T any](s *Steps, name string, fn func() (T, error)) T {
	var out T
	s.Run(name, func() error {
		value, err := fn()
		if err != nil {
			return err
		}
		out = value
		return nil
	})
	return out
}

// Field is Step for values that go straight into a record, a failed step yields nil so the
// field serializes as null.
func Field[T any](s *Steps, name string, fn func() (T, error)) any {
	var out any
	s.Run(name, func() error {
		value, err := fn()
		if err != nil {
			return err
		}
		out = value
		return nil
	})
	return out
}
