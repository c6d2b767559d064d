package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotspot-voucherd/pkg/errutil"
	"hotspot-voucherd/services/profile"
	"hotspot-voucherd/services/router"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

const maxBatchSize = 500

type Service struct {
	db       *gorm.DB
	profiles *profile.Service
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Profiles *profile.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB, profiles: p.Profiles}
}

type GenerateInput struct {
	OwnerUserID string
	ProfileName string
	Scope       RouterScope
	Quantity    int
}

// Generate issues a batch of vouchers from a profile. Codes are drawn at
// random and checked for collision inside the insert transaction, retrying a
// bounded number of times per voucher.
func (s *Service) Generate(ctx context.Context, in GenerateInput) ([]string, error) {
	if in.ProfileName == "" || in.Quantity < 1 || in.Quantity > maxBatchSize {
		return nil, errutil.BadRequest(fmt.Sprintf("invalid profile/qty (max %d per batch)", maxBatchSize))
	}
	if in.Scope == "" {
		in.Scope = ScopeAny
	}

	if !in.Scope.IsWildcard() {
		var owned router.Router
		err := s.db.WithContext(ctx).
			Where("router_id = ? AND owner_user_id = ? AND enabled = ?", string(in.Scope), in.OwnerUserID, true).
			First(&owned).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.BadRequest("invalid router scope")
		}
		if err != nil {
			return nil, err
		}
	}

	prof, err := s.profiles.Get(ctx, in.ProfileName)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	expiresAt := now + int64(prof.ExpiryDays)*86400

	codes := make([]string, 0, in.Quantity)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < in.Quantity; i++ {
			code, err := s.uniqueCode(tx)
			if err != nil {
				return err
			}
			v := Voucher{
				Code:            code,
				OwnerUserID:     in.OwnerUserID,
				RouterScope:     in.Scope,
				Profile:         prof.Name,
				DurationSeconds: prof.DurationSeconds,
				QuotaUpBytes:    prof.QuotaUpBytes,
				QuotaDownBytes:  prof.QuotaDownBytes,
				ExpiresAt:       expiresAt,
				Status:          StatusUnused,
			}
			if err := tx.Create(&v).Error; err != nil {
				return err
			}
			codes = append(codes, code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *Service) uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		cand, err := randomCode(codeLength)
		if err != nil {
			return "", err
		}
		var existing Voucher
		err = tx.Select("code").Where("code = ?", cand).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cand, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a unique voucher code")
}

type ListFilter struct {
	OwnerUserID string // empty means all owners (super)
	Status      Status
	CodeLike    string
}

// VoucherView decorates a voucher with its UI status: a used voucher whose
// latest session is still running shows as "active".
type VoucherView struct {
	Voucher
	UIStatus string `json:"ui_status"`
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]VoucherView, error) {
	q := s.db.WithContext(ctx).Model(&Voucher{})
	if f.OwnerUserID != "" {
		q = q.Where("owner_user_id = ?", f.OwnerUserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CodeLike != "" {
		q = q.Where("code LIKE ?", "%"+f.CodeLike+"%")
	}

	var rows []Voucher
	if err := q.Order("created_at DESC").Limit(maxBatchSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	views := make([]VoucherView, 0, len(rows))
	for _, v := range rows {
		view := VoucherView{Voucher: v, UIStatus: v.Status.String()}
		if v.Status == StatusUsed {
			var sess Session
			err := s.db.WithContext(ctx).
				Where("voucher_code = ?", v.Code).
				Order("id DESC").
				First(&sess).Error
			if err == nil && sess.EndAt > now {
				view.UIStatus = "active"
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Delete removes a voucher. A non-empty ownerUserID restricts the delete to
// that owner.
func (s *Service) Delete(ctx context.Context, code, ownerUserID string) error {
	q := s.db.WithContext(ctx).Where("code = ?", code)
	if ownerUserID != "" {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}
	res := q.Delete(&Voucher{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("voucher not found")
	}
	return nil
}

// Revoke moves a voucher to revoked, from any prior status.
func (s *Service) Revoke(ctx context.Context, code, ownerUserID string) error {
	q := s.db.WithContext(ctx).Model(&Voucher{}).Where("code = ?", code)
	if ownerUserID != "" {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}
	res := q.Update("status", StatusRevoked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("voucher not found")
	}
	return nil
}

// DashboardCounts summarises routers, voucher stock and running sessions for
// the dashboard, scoped to one owner or global for the super admin.
type DashboardCounts struct {
	Routers        int64 `json:"routers"`
	UnusedVouchers int64 `json:"unused_vouchers"`
	UsedVouchers   int64 `json:"used_vouchers"`
	ActiveSessions int64 `json:"active_sessions"`
}

func (s *Service) Dashboard(ctx context.Context, ownerUserID string) (*DashboardCounts, error) {
	now := time.Now().Unix()
	var out DashboardCounts

	routers := s.db.WithContext(ctx).Model(&router.Router{})
	unused := s.db.WithContext(ctx).Model(&Voucher{}).Where("status = ? AND expires_at >= ?", StatusUnused, now)
	used := s.db.WithContext(ctx).Model(&Voucher{}).Where("status = ?", StatusUsed)
	active := s.db.WithContext(ctx).Model(&Session{}).Where("end_at > ?", now)

	if ownerUserID != "" {
		routers = routers.Where("owner_user_id = ?", ownerUserID)
		unused = unused.Where("owner_user_id = ?", ownerUserID)
		used = used.Where("owner_user_id = ?", ownerUserID)
		active = active.Where("router_id IN (?)",
			s.db.Model(&router.Router{}).Select("router_id").Where("owner_user_id = ?", ownerUserID))
	}

	if err := routers.Count(&out.Routers).Error; err != nil {
		return nil, err
	}
	if err := unused.Count(&out.UnusedVouchers).Error; err != nil {
		return nil, err
	}
	if err := used.Count(&out.UsedVouchers).Error; err != nil {
		return nil, err
	}
	if err := active.Count(&out.ActiveSessions).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
