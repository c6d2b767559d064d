package authorize

import (
	"context"
	"errors"
	"time"

	"hotspot-voucherd/pkg/config"
	"hotspot-voucherd/services/router"
	"hotspot-voucherd/services/voucher"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service evaluates voucher authorization requests from router firmware.
type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	cfg     *config.Config
	routers *router.Service
	now     func() time.Time
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Node    *snowflake.Node
	Config  *config.Config
	Routers *router.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		node:    p.Node,
		cfg:     p.Config,
		routers: p.Routers,
		now:     time.Now,
	}
}

// Input is a normalized authorization request: the MAC is lowercase, the
// voucher code uppercase, both already validated by the handler.
type Input struct {
	RouterID string
	MAC      string
	Voucher  string
	TS       int64
	Nonce    string
	Sig      string
}

// Decision is the outcome of one authorization request. Remaining and the
// quota fields are only meaningful when Allow is true.
type Decision struct {
	Allow     bool
	Reason    Reason
	Remaining int64
	Up        int64
	Down      int64
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// Authorize runs the full request pipeline: clock-skew guard, router lookup,
// signature check, nonce replay guard, then voucher redemption inside one
// transaction. Any storage failure collapses to the server reason.
func (s *Service) Authorize(ctx context.Context, in Input) Decision {
	now := s.now().Unix()

	// A zero timestamp opts out of the skew check for routers without a
	// synchronized clock. Replay protection then rests on the nonce alone.
	if in.TS != 0 {
		skew := now - in.TS
		if skew < 0 {
			skew = -skew
		}
		if skew > s.cfg.Auth.MaxClockSkewSeconds {
			return deny(ReasonSkew)
		}
	}

	rt, err := s.routers.Lookup(ctx, in.RouterID)
	if err != nil {
		zap.L().Error("router lookup failed", zap.String("router_id", in.RouterID), zap.Error(err))
		return deny(ReasonServer)
	}
	if rt == nil {
		return deny(ReasonRouter)
	}

	msg := canonicalMessage(in.RouterID, in.MAC, in.Voucher, in.TS, in.Nonce)
	if !verifySignature(rt.Secret, msg, in.Sig) {
		return deny(ReasonSig)
	}

	fresh, err := s.checkAndRecordNonce(ctx, in.RouterID, in.Nonce)
	if err != nil {
		zap.L().Error("nonce claim failed", zap.String("router_id", in.RouterID), zap.Error(err))
		return deny(ReasonServer)
	}
	if !fresh {
		return deny(ReasonReplay)
	}

	d, err := s.redeem(ctx, rt, in, now)
	if err != nil {
		zap.L().Error("voucher redemption failed",
			zap.String("router_id", in.RouterID),
			zap.String("voucher", in.Voucher),
			zap.Error(err))
		return deny(ReasonServer)
	}
	return d
}

// redeem applies the voucher state machine. Deny checks run in a fixed
// order so a voucher that fails several of them always reports the same
// reason.
func (s *Service) redeem(ctx context.Context, rt *router.Router, in Input, now int64) (Decision, error) {
	var out Decision

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v voucher.Voucher
		err := tx.Where("code = ?", in.Voucher).First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = deny(ReasonVoucher)
			return nil
		}
		if err != nil {
			return err
		}

		// Strict less-than: a voucher expiring exactly now still works.
		if v.ExpiresAt < now {
			out = deny(ReasonExpired)
			return nil
		}
		if v.Status == voucher.StatusRevoked {
			out = deny(ReasonRevoked)
			return nil
		}
		if v.OwnerUserID != rt.OwnerUserID {
			out = deny(ReasonTenant)
			return nil
		}
		if !v.RouterScope.Matches(rt.RouterID) {
			out = deny(ReasonScope)
			return nil
		}

		if v.Status == voucher.StatusUnused {
			d, err := s.redeemUnused(tx, &v, in, now)
			if err != nil {
				return err
			}
			out = d
			return nil
		}
		d, err := s.checkUsed(tx, &v, in, now)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return Decision{}, err
	}
	return out, nil
}

// redeemUnused claims an unused voucher for the requesting device. The
// conditional update is the only write that flips unused to used, so under
// concurrent first redemptions exactly one request wins.
func (s *Service) redeemUnused(tx *gorm.DB, v *voucher.Voucher, in Input, now int64) (Decision, error) {
	if v.DurationSeconds <= 0 {
		return deny(ReasonBadSeconds), nil
	}

	res := tx.Model(&voucher.Voucher{}).
		Where("code = ? AND status = ?", v.Code, voucher.StatusUnused).
		Updates(map[string]interface{}{
			"status":         voucher.StatusUsed,
			"used_at":        now,
			"used_by_mac":    in.MAC,
			"used_by_router": in.RouterID,
		})
	if res.Error != nil {
		return Decision{}, res.Error
	}
	if res.RowsAffected == 0 {
		return deny(ReasonRace), nil
	}

	// Re-read and verify the claim really is ours. Guards against a
	// concurrent writer on backends with weaker update semantics.
	var fresh voucher.Voucher
	if err := tx.Where("code = ?", v.Code).First(&fresh).Error; err != nil {
		return Decision{}, err
	}
	if fresh.Status != voucher.StatusUsed || fresh.UsedByMAC != in.MAC {
		return deny(ReasonRace), nil
	}

	sess := voucher.Session{
		ID:          s.node.Generate().Int64(),
		RouterID:    in.RouterID,
		MAC:         in.MAC,
		VoucherCode: v.Code,
		StartAt:     now,
		EndAt:       now + v.DurationSeconds,
	}
	if err := tx.Create(&sess).Error; err != nil {
		return Decision{}, err
	}

	return Decision{
		Allow:     true,
		Remaining: v.DurationSeconds,
		Up:        v.QuotaUpBytes,
		Down:      v.QuotaDownBytes,
	}, nil
}

// checkUsed re-validates a voucher the requesting device already redeemed,
// returning the time left on its newest session.
func (s *Service) checkUsed(tx *gorm.DB, v *voucher.Voucher, in Input, now int64) (Decision, error) {
	if v.UsedByMAC != in.MAC {
		return deny(ReasonUsedByOther), nil
	}

	var sess voucher.Session
	err := tx.Where("voucher_code = ? AND mac = ?", v.Code, in.MAC).
		Order("id DESC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return deny(ReasonNoSession), nil
	}
	if err != nil {
		return Decision{}, err
	}

	if sess.EndAt <= now {
		return deny(ReasonSessionExpired), nil
	}

	return Decision{
		Allow:     true,
		Remaining: sess.EndAt - now,
		Up:        v.QuotaUpBytes,
		Down:      v.QuotaDownBytes,
	}, nil
}
