package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"hotspot-voucherd/pkg/errutil"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// Lookup returns the router for the given id, or nil when it does not exist
// or is disabled. Used by the authorization endpoint on every request,
// outside the voucher transaction.
func (s *Service) Lookup(ctx context.Context, routerID string) (*Router, error) {
	var r Router
	err := s.db.WithContext(ctx).Where("router_id = ?", routerID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !r.Enabled {
		return nil, nil
	}
	return &r, nil
}

type CreateInput struct {
	RouterID    string
	Name        string
	OwnerUserID string
	Secret      string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Router, error) {
	in.RouterID = strings.TrimSpace(in.RouterID)
	in.Name = strings.TrimSpace(in.Name)
	if in.RouterID == "" || in.Name == "" {
		return nil, errutil.BadRequest("router_id and name are required")
	}
	if in.Secret == "" {
		in.Secret = newSecret()
	}

	r := &Router{
		RouterID:    in.RouterID,
		Name:        in.Name,
		OwnerUserID: in.OwnerUserID,
		Secret:      in.Secret,
		Enabled:     true,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("router id already exists")
		}
		return nil, err
	}
	return r, nil
}

// Delete removes a router. A non-empty ownerUserID restricts the delete to
// that owner's routers; the super admin passes an empty string.
func (s *Service) Delete(ctx context.Context, routerID, ownerUserID string) error {
	q := s.db.WithContext(ctx).Where("router_id = ?", routerID)
	if ownerUserID != "" {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}
	res := q.Delete(&Router{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("router not found")
	}
	return nil
}

func (s *Service) List(ctx context.Context, ownerUserID string) ([]Router, error) {
	var rows []Router
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if ownerUserID != "" {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func newSecret() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
