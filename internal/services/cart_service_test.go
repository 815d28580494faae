package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"equiploan/internal/domain"
	"equiploan/internal/services"
)

func item(id string) domain.CartItem { return domain.CartItem{EquipmentID: id, Name: id} }

func TestCart_NeverExceedsCap(t *testing.T) {
	for max := 1; max <= 5; max++ {
		c := services.NewCart(nil, max)
		for i := 0; i < 10; i++ {
			before := c.Len()
			added := c.Add(item(fmt.Sprintf("eq-%d", i)))
			if c.Len() > max {
				t.Fatalf("max=%d: cart grew to %d", max, c.Len())
			}
			if before == max && (added || c.Len() != before) {
				t.Fatalf("max=%d: add at cap must return false and leave the cart unchanged", max)
			}
			if before < max && !added {
				t.Fatalf("max=%d: add below cap refused", max)
			}
		}
	}
}

func TestCart_RejectsDuplicates(t *testing.T) {
	c := services.NewCart(nil, 3)
	if !c.Add(item("eq-cam-1")) {
		t.Fatal("first add refused")
	}
	if c.Add(item("eq-cam-1")) {
		t.Fatal("duplicate accepted")
	}
	if c.Len() != 1 {
		t.Fatalf("want 1 item, got %d", c.Len())
	}
	c.Remove("eq-cam-1")
	c.Remove("eq-cam-1") // unconditional
	if c.Len() != 0 {
		t.Fatalf("want empty, got %d", c.Len())
	}
}

func TestCart_KeepsInsertionOrder(t *testing.T) {
	c := services.NewCart(nil, 3)
	for _, id := range []string{"b", "a", "c"} {
		c.Add(item(id))
	}
	c.Remove("a")
	if ids := c.IDs(); len(ids) != 2 || ids[0] != "b" || ids[1] != "c" {
		t.Fatalf("order lost: %v", ids)
	}
}

func TestCart_DropsItemsStoredPastTheCap(t *testing.T) {
	c := services.NewCart([]domain.CartItem{item("eq-1"), item("eq-2"), item("eq-3")}, 2)
	if ids := c.IDs(); len(ids) != 2 || ids[0] != "eq-1" || ids[1] != "eq-2" {
		t.Fatalf("want the first two items, got %v", ids)
	}
}

func TestCheckout_LoweredLimitCapsStoredCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fillCart(t, e, student, "eq-tripod-1", "eq-cam-1", "eq-laptop-1")

	cfg := domain.DefaultSystemConfig()
	cfg.LoanLimitsByType["student"] = domain.LoanLimit{MaxDays: 7, MaxItems: 1}
	if err := e.settings.SaveSystemConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	rv, err := e.checkout.Review(ctx, student, reserveReq)
	if err != nil || len(rv.Items) != 1 {
		t.Fatalf("review: %+v %v", rv, err)
	}
	res, err := e.checkout.Submit(ctx, student, reserveReq, rv.Token)
	if err != nil || len(res.Created) != 1 {
		t.Fatalf("submit: %+v %v", res, err)
	}
	if mine, _ := e.res.Mine(ctx, student); len(mine) != 1 || mine[0].EquipmentID != "eq-tripod-1" {
		t.Fatalf("checked out %+v", mine)
	}
}

func TestCartService_StudentWithOneItemLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cfg := domain.DefaultSystemConfig()
	cfg.LoanLimitsByType["student"] = domain.LoanLimit{MaxDays: 7, MaxItems: 1}
	if err := e.settings.SaveSystemConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	if ok, err := e.cart.Add(ctx, student, "eq-cam-1"); err != nil || !ok {
		t.Fatalf("add A: %v %v", ok, err)
	}
	items, _ := e.cart.Items(ctx, student)
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}
	if ok, err := e.cart.Add(ctx, student, "eq-tripod-1"); err != nil || ok {
		t.Fatalf("add B: want false, got %v %v", ok, err)
	}
	items, _ = e.cart.Items(ctx, student)
	if len(items) != 1 || items[0].EquipmentID != "eq-cam-1" || items[0].Name != "Canon EOS 90D" {
		t.Fatalf("cart changed: %+v", items)
	}
	if got := e.cart.MaxItems(ctx, student); got != 1 {
		t.Fatalf("MaxItems = %d", got)
	}
	// teachers keep their own limit
	if got := e.cart.MaxItems(ctx, &domain.Actor{ID: "u-teacher", Role: domain.RoleUser, UserType: "teacher"}); got != 5 {
		t.Fatalf("teacher MaxItems = %d", got)
	}
}

func TestCartService_PerUserAndUnknownEquipment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if ok, _ := e.cart.Add(ctx, student, "eq-cam-1"); !ok {
		t.Fatal("add refused")
	}
	if items, _ := e.cart.Items(ctx, student2); len(items) != 0 {
		t.Fatalf("carts leaked between users: %+v", items)
	}
	if _, err := e.cart.Add(ctx, student, "eq-nope"); !errors.Is(err, services.ErrEquipmentNotFound) {
		t.Fatalf("unknown equipment: %v", err)
	}
	if _, err := e.cart.Add(ctx, nil, "eq-cam-1"); !errors.Is(err, services.ErrNotLoggedIn) {
		t.Fatalf("anonymous: %v", err)
	}
	if err := e.cart.Clear(ctx, student); err != nil {
		t.Fatal(err)
	}
	if items, _ := e.cart.Items(ctx, student); len(items) != 0 {
		t.Fatalf("clear: %+v", items)
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]domain.CartItem, error) {
	return nil, errors.New("store down")
}
func (brokenStore) Set(context.Context, string, []domain.CartItem) error { return errors.New("store down") }
func (brokenStore) Clear(context.Context, string) error                  { return errors.New("store down") }

func TestCartService_BrokenStoreDegradesToEmpty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := services.NewCartService(brokenStore{}, e.eqRepo, e.settings)

	items, err := svc.Items(ctx, student)
	if err != nil || len(items) != 0 {
		t.Fatalf("want empty cart without error, got %v %v", items, err)
	}
	if ok, err := svc.Add(ctx, student, "eq-cam-1"); err != nil || ok {
		t.Fatalf("unsaved add should report false without error, got %v %v", ok, err)
	}
	if err := svc.Clear(ctx, student); err != nil {
		t.Fatalf("clear must not fail: %v", err)
	}
}
