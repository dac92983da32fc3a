package service

import (
	"context"

	"bizledger/internal/model"
	"bizledger/internal/repository"

	"gorm.io/gorm"
)

// ItemService is read-only: stock only moves through documents.
type ItemService struct {
	items *repository.ItemRepository
}

func NewItemService(db *gorm.DB) *ItemService {
	return &ItemService{items: repository.NewItemRepository(db)}
}

func (s *ItemService) Get(ctx context.Context, rc RequestContext, id uint) (*model.Item, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.items.Get(ctx, nil, rc.CompanyID, id)
}

func (s *ItemService) List(ctx context.Context, rc RequestContext, page repository.Page) ([]*model.Item, int64, error) {
	if err := rc.check(); err != nil {
		return nil, 0, err
	}
	return s.items.List(ctx, rc.CompanyID, page)
}
