package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/creativevault/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func waitRuns(t *testing.T, s *scheduler.Scheduler, name string, runs int) scheduler.JobInfo {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)

	for time.Now().Before(deadline) {
		info, err := s.JobInfo(name)
		if err != nil {
			t.Fatalf("job info: %v", err)
		}

		if info.Runs >= runs && info.Status != scheduler.StatusRunning {
			return info
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("job %s did not run %d times", name, runs)

	return scheduler.JobInfo{}
}

func TestAddCronAndRunNow(t *testing.T) {
	s := newScheduler(t)

	ran := make(chan struct{}, 1)

	err := s.AddCron("test.ok", "0 3 * * *", func(ctx context.Context) error {
		ran <- struct{}{}

		return nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.RunNow("test.ok"); err != nil {
		t.Fatalf("run now: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	info := waitRuns(t, s, "test.ok", 1)
	if info.Status != scheduler.StatusScheduled || info.LastSuccess.IsZero() || info.Error != "" {
		t.Errorf("unexpected info %+v", info)
	}

	if info.NextRun.IsZero() {
		t.Error("next run not computed")
	}
}

func TestJobErrorRecorded(t *testing.T) {
	s := newScheduler(t)

	if err := s.AddCron("test.fail", "0 3 * * *", func(context.Context) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.RunNow("test.fail"); err != nil {
		t.Fatalf("run now: %v", err)
	}

	info := waitRuns(t, s, "test.fail", 1)
	if info.Status != scheduler.StatusError || info.Error != "boom" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestJobPanicRecorded(t *testing.T) {
	s := newScheduler(t)

	if err := s.AddCron("test.panic", "0 3 * * *", func(context.Context) error {
		panic("kaboom")
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	_ = s.RunNow("test.panic")

	info := waitRuns(t, s, "test.panic", 1)
	if info.Status != scheduler.StatusError {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestAddCronValidation(t *testing.T) {
	s := newScheduler(t)

	noop := func(context.Context) error { return nil }

	if err := s.AddCron("dup", "0 3 * * *", noop); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.AddCron("dup", "0 4 * * *", noop); err == nil {
		t.Error("expected duplicate name error")
	}

	if err := s.AddCron("bad", "not a cron", noop); err == nil {
		t.Error("expected invalid cron error")
	}

	if err := s.RunNow("missing"); !errors.Is(err, scheduler.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}

	if err := s.RemoveJobByName("dup"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(s.JobInfos()) != 0 {
		t.Errorf("jobs remain: %+v", s.JobInfos())
	}
}
