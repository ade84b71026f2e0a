package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/clock"
	"github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("device.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	category := domain.Category(strings.ToUpper(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	now := s.clock.Now()
	d := &domain.Device{
		ID:        s.genID.Generate(),
		Name:      name,
		Category:  category,
		Status:    domain.StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, d); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	resp := toResponse(d)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	var category domain.Category
	if raw := strings.TrimSpace(req.Category); raw != "" {
		category = domain.Category(strings.ToUpper(raw))
		if !category.Valid() {
			return nil, domain.ErrInvalidCategory
		}
	}

	items, err := s.repo.List(ctx, s.db, category)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	deviceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) EnsureByName(ctx context.Context, name string, category domain.Category) (*domain.Response, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, domain.CreateRequest{Name: name, Category: string(category)})
	}

	if existing.Category != category {
		// an occupied device keeps billing under its session's profile; only the label moves
		now := s.clock.Now()
		if err := s.repo.UpdateCategory(ctx, s.db, existing.ID, category, now); err != nil {
			return nil, err
		}
		s.log.Info("device category changed",
			zap.String("device", existing.Name),
			zap.String("from", string(existing.Category)),
			zap.String("to", string(category)),
		)
		existing.Category = category
		existing.UpdatedAt = now
	}

	resp := toResponse(existing)
	return &resp, nil
}

func toResponse(d *domain.Device) domain.Response {
	resp := domain.Response{
		ID:        d.ID.String(),
		Name:      d.Name,
		Category:  d.Category,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.ActiveSessionID != nil {
		v := d.ActiveSessionID.String()
		resp.ActiveSessionID = &v
	}
	return resp
}
