package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cafe-order/models"
	"cafe-order/store"

	"github.com/google/uuid"
)

type MenuService struct {
	store store.MenuStore
	now   func() time.Time
	log   *slog.Logger
}

func NewMenuService(st store.MenuStore, log *slog.Logger) *MenuService {
	if log == nil {
		log = slog.Default()
	}
	return &MenuService{store: st, now: time.Now, log: log}
}

// MenuItemInput is the body of a create request. Available defaults to true.
type MenuItemInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
}

func validateMenuFields(name, category *string, price *int64) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return invalid("name", "is required")
	}
	if category != nil && strings.TrimSpace(*category) == "" {
		return invalid("category", "is required")
	}
	if price != nil && *price < 0 {
		return invalid("price", "must be >= 0")
	}
	return nil
}

func (s *MenuService) List(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	items, err := s.store.ListMenuItems(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

func (s *MenuService) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	it, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "menu item", id, "get menu item")
	}
	return it, nil
}

func (s *MenuService) Create(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	if err := validateMenuFields(&in.Name, &in.Category, &in.Price); err != nil {
		return nil, err
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	it := &models.MenuItem{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Description: in.Description,
		Available:   available,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.InsertMenuItem(ctx, it); err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}
	s.log.Info("menu item created", "menu_item_id", it.ID, "name", it.Name)
	return it, nil
}

// Update applies only the non-nil fields of patch.
func (s *MenuService) Update(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	if err := validateMenuFields(patch.Name, patch.Category, patch.Price); err != nil {
		return nil, err
	}
	if patch.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*patch.Category))
		patch.Category = &c
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}
	it, err := s.store.UpdateMenuItem(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "menu item", id, "update menu item")
	}
	return it, nil
}

// Delete removes the item for good. Past orders keep their own copy of the
// name and price, so nothing else is touched.
func (s *MenuService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return notFound(err, "menu item", id, "delete menu item")
	}
	s.log.Info("menu item deleted", "menu_item_id", id)
	return nil
}
