package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/clock"
	"github.com/smallbiznis/lounge/internal/observability/metrics"
	"github.com/smallbiznis/lounge/internal/order/domain"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	Clock       clock.Clock      `optional:"true"`
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	productRepo productdomain.Repository
	genID       *snowflake.Node
	clock       clock.Clock
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		genID:       p.GenID,
		clock:       clk,
		metrics:     p.Metrics,
	}
}

// inTx joins the caller's transaction or opens a new one.
func (s *Service) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Service) AddItem(ctx context.Context, tx *gorm.DB, req domain.AddItemRequest) (*domain.LineResponse, error) {
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var line *domain.OrderLine
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		product, err := s.productRepo.FindByID(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return productdomain.ErrNotFound
		}

		now := s.clock.Now()
		ok, err := s.productRepo.DecrementStock(ctx, tx, product.ID, req.Quantity, now)
		if err != nil {
			return err
		}
		if !ok {
			s.metrics.RecordOutOfStock()
			s.log.Info("item rejected, insufficient stock",
				zap.String("product", product.Code),
				zap.Int64("requested", req.Quantity),
				zap.Int64("stock", product.Stock),
			)
			return domain.ErrOutOfStock
		}

		line = &domain.OrderLine{
			ID:        s.genID.Generate(),
			SessionID: req.SessionID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.UnitPrice,
			CreatedAt: now,
		}
		return s.repo.Insert(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}

	resp := toLineResponse(line)
	return &resp, nil
}

func (s *Service) RemoveOneUnit(ctx context.Context, tx *gorm.DB, sessionID *snowflake.ID, productID snowflake.ID) error {
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		line, err := s.repo.LatestLine(ctx, tx, sessionID, productID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrLineNotFound
		}

		if line.Quantity <= 1 {
			err = s.repo.Delete(ctx, tx, line.ID)
		} else {
			err = s.repo.DecrementQuantity(ctx, tx, line.ID)
		}
		if err != nil {
			return err
		}
		return s.productRepo.IncrementStock(ctx, tx, productID, 1, s.clock.Now())
	})
}

func (s *Service) ListGrouped(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) ([]domain.GroupedResponse, error) {
	db := tx
	if db == nil {
		db = s.db
	}
	items, err := s.repo.ListGrouped(ctx, db, sessionID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.GroupedResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.GroupedResponse{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return resp, nil
}

func (s *Service) ItemsTotal(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) (int64, error) {
	db := tx
	if db == nil {
		db = s.db
	}
	return s.repo.SumTotal(ctx, db, sessionID)
}

func (s *Service) DirectSale(ctx context.Context, req domain.DirectSaleRequest) (*domain.DirectSaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidQuantity
	}

	items := make([]domain.AddItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		items = append(items, domain.AddItemRequest{ProductID: productID, Quantity: item.Quantity})
	}

	resp := &domain.DirectSaleResponse{Lines: make([]domain.LineResponse, 0, len(items))}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			line, err := s.AddItem(ctx, tx, item)
			if err != nil {
				return err
			}
			resp.Lines = append(resp.Lines, *line)
			resp.Total += line.Quantity * line.UnitPrice
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("counter sale recorded",
		zap.Int("lines", len(resp.Lines)),
		zap.Int64("total", resp.Total),
	)
	return resp, nil
}

func toLineResponse(line *domain.OrderLine) domain.LineResponse {
	return domain.LineResponse{
		ID:        line.ID.String(),
		ProductID: line.ProductID.String(),
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
	}
}
