// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/yeisme/creativevault/pkg/log"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下次运行
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error" // 上次运行失败
)

// JobFunc 定时任务函数，返回错误时记录到 JobInfo.
type JobFunc func(ctx context.Context) error

// JobInfo 定时任务的运行信息.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Runs        int       `json:"runs"`
}

// Scheduler 包装 gocron 调度器并记录任务状态.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	jobs      map[string]gocron.Job // 以任务名称为键
	infos     map[string]*JobInfo
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler 创建调度器，所有任务使用 UTC 计算 cron.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		infos:     make(map[string]*JobInfo),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddCron 添加一个基于 cron 表达式的定时任务，同一任务不会并发运行.
func (s *Scheduler) AddCron(name, cronExpr string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.wrap(name, job), s.ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	nextRun, _ := j.NextRun()

	s.jobs[name] = j
	s.infos[name] = &JobInfo{
		ID:       j.ID().String(),
		Name:     name,
		CronExpr: cronExpr,
		NextRun:  nextRun,
		Status:   StatusScheduled,
	}

	l := log.Logger()
	l.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// wrap 记录运行状态并拦截 panic.
func (s *Scheduler) wrap(name string, job JobFunc) func(ctx context.Context) {
	return func(ctx context.Context) {
		l := log.Logger()

		s.setStatus(name, func(info *JobInfo) {
			info.Status = StatusRunning
			info.LastRun = time.Now().UTC()
		})

		var err error

		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in job: %v", r)
				}
			}()

			err = job(ctx)
		}()

		s.setStatus(name, func(info *JobInfo) {
			info.Runs++
			if err != nil {
				info.Status = StatusError
				info.Error = err.Error()

				return
			}

			info.Status = StatusScheduled
			info.Error = ""
			info.LastSuccess = time.Now().UTC()
		})

		if err != nil {
			l.Error().Err(err).Str("job", name).Msg("job failed")
		}
	}
}

func (s *Scheduler) setStatus(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		fn(info)
	}
}

// RunNow 立即运行一次指定任务.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	return j.RunNow()
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	if err := s.scheduler.RemoveJob(j.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.infos, name)

	return nil
}

// JobInfo 返回指定任务信息的副本，NextRun 实时读取.
func (s *Scheduler) JobInfo(name string) (JobInfo, error) {
	s.mu.RLock()
	info, ok := s.infos[name]
	j := s.jobs[name]

	var out JobInfo
	if ok {
		out = *info
	}
	s.mu.RUnlock()

	if !ok {
		return JobInfo{}, fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	if next, err := j.NextRun(); err == nil {
		out.NextRun = next
	}

	return out, nil
}

// JobInfos 返回全部任务信息，按名称排序.
func (s *Scheduler) JobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, *info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// JobID 返回任务的 gocron id.
func (s *Scheduler) JobID(name string) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[name]
	if !ok {
		return uuid.Nil, false
	}

	return j.ID(), true
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	l := log.Logger()
	l.Info().Int("jobs", len(s.JobInfos())).Msg("starting scheduler")
	s.scheduler.Start()
}

// Stop 取消运行中任务的 context 并关闭调度器.
func (s *Scheduler) Stop() error {
	l := log.Logger()
	l.Info().Msg("stopping scheduler")
	s.cancel()

	return s.scheduler.Shutdown()
}
