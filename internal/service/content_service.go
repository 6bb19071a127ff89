package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/repository"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

// ContentService serves financial-literacy articles and promotional offers.
type ContentService struct {
	ArticleRepo repository.ArticleRepository
	OfferRepo   repository.OfferRepository
	now         func() time.Time
}

func NewContentService(articles repository.ArticleRepository, offers repository.OfferRepository) *ContentService {
	return &ContentService{ArticleRepo: articles, OfferRepo: offers, now: utcNow}
}

func (s *ContentService) ListArticles(ctx context.Context) ([]*domain.Article, error) {
	articles, err := s.ArticleRepo.List(ctx)
	if err != nil {
		return nil, persistenceError("failed to list articles", err)
	}
	if articles == nil {
		articles = []*domain.Article{}
	}
	return articles, nil
}

func (s *ContentService) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	article, err := s.ArticleRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapNotFound("Article", id)
	}
	if err != nil {
		return nil, persistenceError("failed to load article", err, "article_id", id)
	}
	return article, nil
}

func (s *ContentService) CreateArticle(ctx context.Context, request *domain.CreateArticleRequest) (*domain.Article, error) {
	article := &domain.Article{
		ID:        uuid.NewString(),
		Title:     request.Title,
		Author:    request.Author,
		Excerpt:   request.Excerpt,
		Content:   request.Content,
		ImageURL:  request.ImageURL,
		ImageHint: request.ImageHint,
		CreatedAt: s.now(),
	}
	if err := s.ArticleRepo.Create(ctx, article); err != nil {
		return nil, persistenceError("failed to create article", err)
	}
	return article, nil
}

// ListActiveOffers returns only offers flagged active.
func (s *ContentService) ListActiveOffers(ctx context.Context) ([]*domain.Offer, error) {
	offers, err := s.OfferRepo.ListActive(ctx)
	if err != nil {
		return nil, persistenceError("failed to list offers", err)
	}
	if offers == nil {
		offers = []*domain.Offer{}
	}
	return offers, nil
}

func (s *ContentService) CreateOffer(ctx context.Context, request *domain.CreateOfferRequest) (*domain.Offer, error) {
	offer := &domain.Offer{
		ID:          uuid.NewString(),
		Title:       request.Title,
		Description: request.Description,
		Discount:    request.Discount,
		IsActive:    request.IsActive,
		CreatedAt:   s.now(),
	}
	if err := s.OfferRepo.Create(ctx, offer); err != nil {
		return nil, persistenceError("failed to create offer", err)
	}
	return offer, nil
}
