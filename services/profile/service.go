package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hotspot-voucherd/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"hotspot-voucherd/services/operator"
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

func (s *Service) Get(ctx context.Context, name string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("profile not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, p Profile) (*Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.DurationSeconds <= 0 || p.QuotaUpBytes < 0 || p.QuotaDownBytes < 0 || p.Price < 0 || p.ExpiryDays < 0 {
		return nil, errutil.BadRequest("invalid profile fields")
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("profile name already exists")
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Profile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("profile not found")
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Profile, error) {
	var rows []Profile
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) handleList(c *gin.Context) {
	rows, err := s.List(c.Request.Context())
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": rows})
}

func (s *Service) handleCreate(c *gin.Context) {
	var p Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		errutil.Respond(c, errutil.BadRequest("invalid request body"))
		return
	}
	created, err := s.Create(c.Request.Context(), p)
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Service) handleDelete(c *gin.Context) {
	if err := s.Delete(c.Request.Context(), c.Param("name")); err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func RegisterRoutes(e *gin.Engine, svc *Service, mw *operator.Middleware) {
	g := e.Group("/v1/profiles", mw.RequireAuth())
	g.GET("", svc.handleList)
	g.POST("", mw.RequireSuper(), svc.handleCreate)
	g.DELETE("/:name", mw.RequireSuper(), svc.handleDelete)
}

var Module = fx.Module("profile.module",
	fx.Provide(NewService),
	fx.Invoke(RegisterRoutes),
)
