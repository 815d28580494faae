package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"equiploan/internal/domain"
	applog "equiploan/internal/log"
	"equiploan/internal/repos"
)

// CartStore persists carts by user id. Implementations: repos.CartRepo, redisx.CartStore.
type CartStore interface {
	Get(ctx context.Context, userID string) ([]domain.CartItem, error)
	Set(ctx context.Context, userID string, items []domain.CartItem) error
	Clear(ctx context.Context, userID string) error
}

// Cart is an ordered set of equipment selections with a size cap.
type Cart struct {
	items []domain.CartItem
	max   int
}

// NewCart keeps at most max items, in order. Anything stored past the cap, for example
// after the limit was lowered, is dropped.
func NewCart(items []domain.CartItem, max int) *Cart {
	if max <= 0 {
		max = domain.DefaultMaxItems
	}
	if len(items) > max {
		items = items[:max]
	}
	return &Cart{items: slices.Clone(items), max: max}
}

// Add appends it unless the cart is full or already holds the same equipment id.
func (c *Cart) Add(it domain.CartItem) bool {
	if len(c.items) >= c.max || c.Contains(it.EquipmentID) {
		return false
	}
	c.items = append(c.items, it)
	return true
}

func (c *Cart) Remove(equipmentID string) {
	c.items = slices.DeleteFunc(c.items, func(it domain.CartItem) bool { return it.EquipmentID == equipmentID })
}

func (c *Cart) Contains(equipmentID string) bool {
	return slices.ContainsFunc(c.items, func(it domain.CartItem) bool { return it.EquipmentID == equipmentID })
}

func (c *Cart) Len() int                 { return len(c.items) }
func (c *Cart) Max() int                 { return c.max }
func (c *Cart) Items() []domain.CartItem { return slices.Clone(c.items) }

func (c *Cart) IDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.EquipmentID
	}
	return ids
}

type CartService struct {
	Store     CartStore
	Equipment *repos.EquipmentRepo
	Settings  *repos.SettingsRepo
}

func NewCartService(store CartStore, eq *repos.EquipmentRepo, settings *repos.SettingsRepo) *CartService {
	return &CartService{Store: store, Equipment: eq, Settings: settings}
}

// MaxItems is the cart cap for the caller's borrower type.
func (s *CartService) MaxItems(ctx context.Context, actor *domain.Actor) int {
	cfg, err := s.Settings.SystemConfig(ctx)
	if err != nil {
		applog.Error(nil, "cart.settings", err, nil)
		cfg = domain.DefaultSystemConfig()
	}
	return cfg.LimitsFor(actor.UserType).MaxItems
}

// Load hydrates the caller's cart. A store that cannot be read yields an empty cart.
func (s *CartService) Load(ctx context.Context, actor *domain.Actor) (*Cart, error) {
	if actor == nil {
		return nil, ErrNotLoggedIn
	}
	items, err := s.Store.Get(ctx, actor.ID)
	if err != nil {
		applog.Error(nil, "cart.load", err, map[string]any{"user_id": actor.ID})
		items = nil
	}
	return NewCart(items, s.MaxItems(ctx, actor)), nil
}

func (s *CartService) save(ctx context.Context, actor *domain.Actor, c *Cart) bool {
	if err := s.Store.Set(ctx, actor.ID, c.Items()); err != nil {
		applog.Error(nil, "cart.save", err, map[string]any{"user_id": actor.ID})
		return false
	}
	return true
}

func (s *CartService) Items(ctx context.Context, actor *domain.Actor) ([]domain.CartItem, error) {
	c, err := s.Load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return c.Items(), nil
}

// Add puts equipment in the cart. It reports false, without error, when the cart is full,
// the item is already there, or the cart could not be saved.
func (s *CartService) Add(ctx context.Context, actor *domain.Actor, equipmentID string) (bool, error) {
	c, err := s.Load(ctx, actor)
	if err != nil {
		return false, err
	}
	if err := checkStruct(struct {
		EquipmentID string `validate:"required,resid"`
	}{equipmentID}); err != nil {
		return false, err
	}
	if c.Contains(equipmentID) || c.Len() >= c.Max() {
		return false, nil
	}
	eq, err := s.Equipment.Get(ctx, equipmentID)
	if repos.IsNotFound(err) {
		return false, ErrEquipmentNotFound
	}
	if err != nil {
		return false, fmt.Errorf("loading equipment: %w", err)
	}
	if !c.Add(domain.CartItem{
		EquipmentID:     eq.ID,
		Name:            eq.Name,
		InventoryNumber: eq.InventoryNumber,
		ImageURL:        firstImage(eq.ImagesJSON),
	}) {
		return false, nil
	}
	return s.save(ctx, actor, c), nil
}

func (s *CartService) Remove(ctx context.Context, actor *domain.Actor, equipmentID string) error {
	c, err := s.Load(ctx, actor)
	if err != nil {
		return err
	}
	c.Remove(equipmentID)
	s.save(ctx, actor, c)
	return nil
}

func (s *CartService) Clear(ctx context.Context, actor *domain.Actor) error {
	if actor == nil {
		return ErrNotLoggedIn
	}
	if err := s.Store.Clear(ctx, actor.ID); err != nil {
		applog.Error(nil, "cart.clear", err, map[string]any{"user_id": actor.ID})
	}
	return nil
}

func firstImage(imagesJSON string) string {
	var imgs []string
	if json.Unmarshal([]byte(imagesJSON), &imgs) != nil || len(imgs) == 0 {
		return ""
	}
	return imgs[0]
}
