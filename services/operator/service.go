package operator

import (
	"context"
	"errors"
	"strings"

	"hotspot-voucherd/pkg/config"
	"hotspot-voucherd/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	cfg     *config.Config
	limiter LoginLimiter
	tokens  TokenStore
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Node    *snowflake.Node
	Config  *config.Config
	Limiter LoginLimiter
	Tokens  TokenStore
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		node:    p.Node,
		cfg:     p.Config,
		limiter: p.Limiter,
		tokens:  p.Tokens,
	}
}

// Login verifies credentials under the per-address throttle and mints a
// bearer token on success.
func (s *Service) Login(ctx context.Context, ip, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", errutil.BadRequest("missing credentials")
	}

	ok, err := s.limiter.Allowed(ctx, ip)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errutil.TooManyRequest("too many attempts, try later")
	}

	var op Operator
	err = s.db.WithContext(ctx).Where("username = ?", username).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !op.Enabled) {
		_ = s.limiter.RecordFail(ctx, ip)
		return "", errutil.Unauthorized("invalid login")
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		_ = s.limiter.RecordFail(ctx, ip)
		return "", errutil.Unauthorized("invalid login")
	}

	if err := s.limiter.RecordSuccess(ctx, ip); err != nil {
		zap.L().Warn("failed to reset login throttle", zap.Error(err))
	}
	return s.tokens.Create(ctx, op.ID)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Authenticate resolves a bearer token to its operator.
func (s *Service) Authenticate(ctx context.Context, token string) (*Operator, error) {
	id, err := s.tokens.Resolve(ctx, token)
	if errors.Is(err, ErrTokenNotFound) {
		return nil, errutil.Unauthorized("invalid token")
	}
	if err != nil {
		return nil, err
	}

	var op Operator
	err = s.db.WithContext(ctx).Where("id = ?", id).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.Unauthorized("invalid token")
	}
	if err != nil {
		return nil, err
	}
	if !op.Enabled {
		return nil, errutil.Unauthorized("account disabled")
	}
	return &op, nil
}

func (s *Service) Create(ctx context.Context, username, password string, role Role) (*Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errutil.BadRequest("username and password are required")
	}
	if role.String() == "" {
		return nil, errutil.BadRequest("invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	op := &Operator{
		ID:           s.node.Generate().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
	}
	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("username already exists")
		}
		return nil, err
	}
	return op, nil
}

// Delete removes an operator account. Super accounts cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND role = ?", id, RoleOperator).Delete(&Operator{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("operator not found")
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Operator, error) {
	var rows []Operator
	if err := s.db.WithContext(ctx).Where("role = ?", RoleOperator).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Bootstrap creates the initial super admin when the operators table is
// empty. Invoked once at startup.
func Bootstrap(svc *Service, cfg *config.Config) error {
	var count int64
	if err := svc.db.Model(&Operator{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Bootstrap.AdminPass == "" {
		zap.L().Warn("no operators exist and BOOTSTRAP_ADMIN_PASS is unset, skipping bootstrap")
		return nil
	}

	op, err := svc.Create(context.Background(), cfg.Bootstrap.AdminUser, cfg.Bootstrap.AdminPass, RoleSuper)
	if err != nil {
		return err
	}
	zap.L().Info("bootstrapped super admin", zap.String("username", op.Username))
	return nil
}
