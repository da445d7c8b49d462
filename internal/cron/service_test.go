package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/leadcollect/cart-recovery/pkg/logger"
)

type fakeLock struct {
	acquired bool
	acquires int
	releases int
	err      error
}

func (l *fakeLock) Acquire(context.Context) (bool, error) {
	l.acquires++
	return l.acquired, l.err
}

func (l *fakeLock) Release(context.Context) error {
	l.releases++
	return nil
}

type fakeJob struct {
	name string
	runs int
	err  error
}

func (j *fakeJob) Name() string {
	return j.name
}

func (j *fakeJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: jobs, Lock: lock})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}}); err == nil {
		t.Error("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Error("expected error without lock")
	}
}

func TestRunCycleRunsJobsUnderLock(t *testing.T) {
	lock := &fakeLock{acquired: true}
	job := &fakeJob{name: "cart-sweep"}
	svc := newService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 1 {
		t.Errorf("runs = %d", job.runs)
	}
	if lock.acquires != 1 || lock.releases != 1 {
		t.Errorf("acquires = %d releases = %d", lock.acquires, lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	lock := &fakeLock{acquired: false}
	job := &fakeJob{name: "cart-sweep"}
	svc := newService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Error("jobs must not run without the lock")
	}
	if lock.releases != 0 {
		t.Error("a lock we never held must not be released")
	}
}

func TestRunCycleJobFailureDoesNotStopOthers(t *testing.T) {
	lock := &fakeLock{acquired: true}
	failing := &fakeJob{name: "first", err: errors.New("boom")}
	second := &fakeJob{name: "second"}
	svc := newService(t, lock, failing, second)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if second.runs != 1 {
		t.Error("a failing job must not stop the cycle")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lock := &fakeLock{acquired: true}
	job := &fakeJob{name: "cart-sweep"}
	svc := newService(t, lock, job)

	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The immediate first cycle still ran before the loop observed the
	// canceled context.
	if job.runs != 1 {
		t.Errorf("runs = %d", job.runs)
	}
}
