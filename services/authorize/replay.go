package authorize

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// checkAndRecordNonce claims (routerID, nonce) by inserting it. A unique
// violation means the nonce was seen before. Expired rows are purged first so
// the table stays bounded even if the scheduled purge task falls behind.
//
// The claim is kept even when the request is later denied: a replayed request
// must fail the same way whether or not the original one succeeded.
func (s *Service) checkAndRecordNonce(ctx context.Context, routerID, nonce string) (bool, error) {
	now := s.now().Unix()
	cutoff := now - s.cfg.Auth.NonceTTLSeconds

	if err := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Nonce{}).Error; err != nil {
		return false, err
	}

	err := s.db.WithContext(ctx).Create(&Nonce{
		RouterID:  routerID,
		Value:     nonce,
		CreatedAt: now,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
