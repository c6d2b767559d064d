package authorize

import (
	"context"
	"time"

	"hotspot-voucherd/pkg/taskname"
	"hotspot-voucherd/services/voucher"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// HandleNoncePurge drops consumed nonces older than the replay window. The
// guard already purges opportunistically on each request; this keeps the
// table small during quiet periods.
func (s *Service) HandleNoncePurge(ctx context.Context, _ *asynq.Task) error {
	cutoff := s.now().Unix() - s.cfg.Auth.NonceTTLSeconds
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Nonce{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		zap.L().Info("purged expired nonces", zap.Int64("count", res.RowsAffected))
	}
	return nil
}

// HandleSessionSweep removes session rows that ended more than a week ago.
// Recently ended sessions stay so a re-validation can answer with the
// session_expired reason rather than no_session.
func (s *Service) HandleSessionSweep(ctx context.Context, _ *asynq.Task) error {
	cutoff := s.now().Add(-7 * 24 * time.Hour).Unix()
	res := s.db.WithContext(ctx).Where("end_at < ?", cutoff).Delete(&voucher.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		zap.L().Info("swept ended sessions", zap.Int64("count", res.RowsAffected))
	}
	return nil
}

func RegisterTasks(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.NoncePurge, s.HandleNoncePurge)
	mux.HandleFunc(taskname.SessionSweep, s.HandleSessionSweep)
}

func RegisterSchedules(scheduler *asynq.Scheduler) error {
	if _, err := scheduler.Register("@every 5m",
		asynq.NewTask(taskname.NoncePurge, nil),
		asynq.Queue("low")); err != nil {
		return err
	}
	if _, err := scheduler.Register("@every 1h",
		asynq.NewTask(taskname.SessionSweep, nil),
		asynq.Queue("low")); err != nil {
		return err
	}
	return nil
}
