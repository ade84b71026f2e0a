package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/billing"
	"github.com/smallbiznis/lounge/internal/clock"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/observability/metrics"
	"github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ratecatalog.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]domain.Response, error) {
	var cat devicedomain.Category
	if raw := strings.TrimSpace(category); raw != "" {
		cat = devicedomain.Category(strings.ToUpper(raw))
		if !cat.Valid() {
			return nil, domain.ErrInvalidCategory
		}
	}

	profiles, err := s.listWithTiers(ctx, s.db, cat)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, toResponse(&profiles[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	profileID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	profile, err := s.Load(ctx, nil, profileID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(profile)
	return &resp, nil
}

func (s *Service) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *Service) Load(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.RateProfile, error) {
	db := s.conn(tx)
	profile, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	if err := s.attachTiers(ctx, db, []*domain.RateProfile{profile}); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) ResolveOrFallback(ctx context.Context, tx *gorm.DB, category devicedomain.Category, id snowflake.ID) (*domain.RateProfile, bool, error) {
	if id != 0 {
		profile, err := s.Load(ctx, tx, id)
		switch {
		case err == nil && profile.Category == category:
			return profile, false, nil
		case err != nil && !errors.Is(err, domain.ErrProfileNotFound):
			return nil, false, err
		}
	}

	profiles, err := s.listWithTiers(ctx, s.conn(tx), category)
	if err != nil {
		return nil, false, err
	}
	if len(profiles) == 0 {
		return nil, false, domain.ErrNoProfiles
	}

	fallback := profiles[0]
	if id == 0 {
		// no explicit choice: the category default is the regular answer
		return &fallback, false, nil
	}
	s.log.Warn("rate profile reference broken, using category default",
		zap.String("requested_profile_id", id.String()),
		zap.String("category", string(category)),
		zap.String("fallback_profile", fallback.Code),
	)
	s.metrics.RecordProfileFallback(string(category))
	return &fallback, true, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	category := devicedomain.Category(strings.ToUpper(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	table := TableFromInput(req.Tiers, req.OverflowBlockMinutes, req.OverflowBlockPrice)
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidTiers, code, err)
	}

	var saved *domain.RateProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		profile, err := s.repo.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}

		isNew := profile == nil
		if isNew {
			profile = &domain.RateProfile{
				ID:        s.genID.Generate(),
				Code:      code,
				CreatedAt: now,
			}
		}
		profile.Name = name
		profile.Category = category
		profile.OverflowBlockMinutes = req.OverflowBlockMinutes
		profile.OverflowBlockPrice = req.OverflowBlockPrice
		profile.UpdatedAt = now

		if isNew {
			err = s.repo.InsertProfile(ctx, tx, profile)
		} else {
			err = s.repo.UpdateProfile(ctx, tx, profile)
		}
		if err != nil {
			return err
		}

		tiers := make([]domain.PricingTier, 0, len(req.Tiers))
		for _, t := range table.Sorted() {
			tiers = append(tiers, domain.PricingTier{
				ID:            s.genID.Generate(),
				RateProfileID: profile.ID,
				MinMinutes:    t.Min,
				MaxMinutes:    t.Max,
				Price:         t.Price,
			})
		}
		if err := s.repo.ReplaceTiers(ctx, tx, profile.ID, tiers); err != nil {
			return err
		}
		profile.Tiers = tiers
		saved = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(saved)
	return &resp, nil
}

// TableFromInput builds a calculator table from request tiers.
func TableFromInput(tiers []domain.TierInput, blockMinutes *int, blockPrice *int64) billing.TierTable {
	table := billing.TierTable{Tiers: make([]billing.Tier, 0, len(tiers))}
	for _, t := range tiers {
		table.Tiers = append(table.Tiers, billing.Tier{Min: t.Min, Max: t.Max, Price: t.Price})
	}
	if blockMinutes != nil || blockPrice != nil {
		o := &billing.Overflow{}
		if blockMinutes != nil {
			o.BlockMinutes = *blockMinutes
		}
		if blockPrice != nil {
			o.BlockPrice = *blockPrice
		}
		table.Overflow = o
	}
	return table
}

func (s *Service) listWithTiers(ctx context.Context, db *gorm.DB, category devicedomain.Category) ([]domain.RateProfile, error) {
	profiles, err := s.repo.List(ctx, db, category)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*domain.RateProfile, 0, len(profiles))
	for i := range profiles {
		ptrs = append(ptrs, &profiles[i])
	}
	if err := s.attachTiers(ctx, db, ptrs); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *Service) attachTiers(ctx context.Context, db *gorm.DB, profiles []*domain.RateProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(profiles))
	byID := make(map[snowflake.ID]*domain.RateProfile, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
		byID[p.ID] = p
		p.Tiers = nil
	}

	tiers, err := s.repo.ListTiers(ctx, db, ids)
	if err != nil {
		return err
	}
	for _, t := range tiers {
		if p, ok := byID[t.RateProfileID]; ok {
			p.Tiers = append(p.Tiers, t)
		}
	}
	for _, p := range profiles {
		sort.SliceStable(p.Tiers, func(i, j int) bool { return p.Tiers[i].MinMinutes < p.Tiers[j].MinMinutes })
	}
	return nil
}

func toResponse(p *domain.RateProfile) domain.Response {
	resp := domain.Response{
		ID:                   p.ID.String(),
		Code:                 p.Code,
		Name:                 p.Name,
		Category:             p.Category,
		Tiers:                make([]domain.TierResponse, 0, len(p.Tiers)),
		OverflowBlockMinutes: p.OverflowBlockMinutes,
		OverflowBlockPrice:   p.OverflowBlockPrice,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	for _, t := range p.Tiers {
		resp.Tiers = append(resp.Tiers, domain.TierResponse{
			MinMinutes: t.MinMinutes,
			MaxMinutes: t.MaxMinutes,
			Price:      t.Price,
		})
	}
	return resp
}
