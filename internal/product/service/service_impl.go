package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/clock"
	"github.com/smallbiznis/lounge/internal/product/domain"
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
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.UnitPrice < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	p := &domain.Product{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
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
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Restock(ctx context.Context, req domain.RestockRequest) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var item *domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.IncrementStock(ctx, tx, productID, req.Quantity, s.clock.Now()); err != nil {
			return err
		}
		found, err := s.repo.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrNotFound
		}
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product restocked",
		zap.String("code", item.Code),
		zap.Int64("quantity", req.Quantity),
		zap.Int64("stock", item.Stock),
	)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) EnsureByCode(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}

	existing, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, req)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.UnitPrice < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if existing.Name != name || existing.UnitPrice != req.UnitPrice {
		existing.Name = name
		existing.UnitPrice = req.UnitPrice
		existing.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateDetails(ctx, s.db, existing); err != nil {
			return nil, err
		}
	}

	resp := toResponse(existing)
	return &resp, nil
}

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
