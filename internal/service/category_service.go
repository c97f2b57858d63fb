package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-stocktrack/internal/apperr"
	"go-stocktrack/internal/feed"
	"go-stocktrack/internal/inventory"
	"go-stocktrack/internal/model"
	"go-stocktrack/internal/repository"
)

// CategoryEvent is a change notification for the categories table.
type CategoryEvent struct {
	Type feed.EventType  `json:"type"`
	Old  *model.Category `json:"old,omitempty"`
	New  *model.Category `json:"new,omitempty"`
}

type CategoryService interface {
	GetAllCategories() ([]model.Category, *apperr.Error)
	CreateCategory(input inventory.CategoryInput) (*model.Category, *apperr.Error)
	DeleteCategory(id string) (bool, *apperr.Error)
	SubscribeToCategories(eventType feed.EventType, handler func(CategoryEvent)) *feed.Subscription
}

type categoryService struct {
	categories repository.CategoryRepository
	hub        *feed.Hub
	log        *zap.Logger
}

func NewCategoryService(categories repository.CategoryRepository, hub *feed.Hub, log *zap.Logger) CategoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &categoryService{categories: categories, hub: hub, log: log}
}

func (s *categoryService) publish(t feed.EventType, old, updated *model.Category) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(feed.Event{
		Table: model.Category{}.TableName(),
		Type:  t,
		Old:   old,
		New:   updated,
	})
}

func (s *categoryService) GetAllCategories() (categories []model.Category, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeFetch, &aerr)

	rows, err := s.categories.FindAll()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeFetch, "Failed to fetch categories", err)
	}
	return rows, nil
}

func (s *categoryService) CreateCategory(input inventory.CategoryInput) (category *model.Category, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeCreate, &aerr)

	if res := inventory.ValidateCategory(input); !res.Valid {
		return nil, apperr.WithDetails(apperr.CodeCreate, inventory.JoinErrors(res), res.Errors)
	}

	row := model.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.categories.Create(&row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.CodeDuplicateName, "Category name already exists. Please use a unique name.")
		}
		return nil, apperr.Wrap(apperr.CodeCreate, "Failed to create category", err)
	}

	s.publish(feed.EventInsert, nil, &row)
	return &row, nil
}

func (s *categoryService) DeleteCategory(id string) (ok bool, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeDelete, &aerr)

	if strings.TrimSpace(id) == "" {
		return false, apperr.New(apperr.CodeDelete, "Category ID is required")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, apperr.New(apperr.CodeNotFound, "Category not found")
	}

	before, err := s.categories.FindByID(uid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.Wrap(apperr.CodeDelete, "Failed to delete category", err)
	}

	if err := s.categories.Delete(uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.New(apperr.CodeNotFound, "Category not found")
		}
		return false, apperr.Wrap(apperr.CodeDelete, "Failed to delete category", err)
	}

	if before != nil {
		s.publish(feed.EventDelete, before, nil)
	}
	return true, nil
}

func (s *categoryService) SubscribeToCategories(eventType feed.EventType, handler func(CategoryEvent)) *feed.Subscription {
	if handler == nil {
		return &feed.Subscription{Err: errors.New("service: nil handler")}
	}
	if s.hub == nil {
		return &feed.Subscription{Err: errors.New("service: no change feed configured")}
	}
	return s.hub.Subscribe(model.Category{}.TableName(), eventType, func(ev feed.Event) {
		out := CategoryEvent{Type: ev.Type}
		if c, ok := ev.Old.(*model.Category); ok {
			out.Old = c
		}
		if c, ok := ev.New.(*model.Category); ok {
			out.New = c
		}
		handler(out)
	})
}
