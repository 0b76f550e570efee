// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionDeleter は期限切れセッションの削除インターフェース。
// repository.SessionRepositoryの部分集合。
type SessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Recorder は削除件数を受け取るメトリクスのインターフェース。
type Recorder interface {
	RecordSessionsCleaned(n int64)
}

// DefaultSchedule はデフォルトの実行スケジュール。
const DefaultSchedule = "@every 1h"

// CleanupJob は期限切れセッションを削除するジョブ。
// 何度実行しても結果は同じになる。
type CleanupJob struct {
	sessions SessionDeleter
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。recorderはnil可。
func NewCleanupJob(sessions SessionDeleter, recorder Recorder, logger *slog.Logger) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Run は期限切れセッションを削除し、削除件数を返す。
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsCleaned(deleted)
	}
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return deleted, nil
}

// Scheduler はCleanupJobをcronスケジュールで実行する。
type Scheduler struct {
	cron *cron.Cron
	job  *CleanupJob
	spec string
}

// NewScheduler はScheduler を生成する。specが空の場合はDefaultScheduleを使う。
func NewScheduler(job *CleanupJob, spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSchedule
	}
	return &Scheduler{
		cron: cron.New(),
		job:  job,
		spec: spec,
	}
}

// Start はジョブを登録してスケジューラを開始し、起動直後にも1回実行する。
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		s.job.Run(ctx)
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.job.logger.Info("session cleanup scheduler started", slog.String("schedule", s.spec))

	go s.job.Run(ctx)
	return nil
}

// Stop はスケジューラを停止し、実行中のジョブの完了を待つ。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.job.logger.Info("session cleanup scheduler stopped")
}
