package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cartpromo/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProduct() *model.SavedProduct {
	return &model.SavedProduct{
		Shop:              "s1.myshopify.com",
		ProductID:         "gid://shopify/Product/1",
		Title:             "Widget Snowboard",
		Handle:            "widget-snowboard",
		Image:             "https://cdn.example/board.png",
		AvailableQuantity: 5,
		IsAvailable:       true,
		CreatedAt:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartpromo.db")
	ctx := context.Background()

	s1, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	if err := s1.Create(ctx, sampleProduct()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s1.Close()

	s2, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer s2.Close()

	got, err := s2.Lookup(ctx, "s1.myshopify.com", "gid://shopify/Product/1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil {
		t.Fatal("record lost across reopen")
	}
}

func TestCreateAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := sampleProduct()
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == 0 {
		t.Error("ID not set after Create")
	}

	got, err := s.Lookup(ctx, p.Shop, p.ProductID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil {
		t.Fatal("Lookup() = nil, want record")
	}
	if got.ID != p.ID {
		t.Errorf("ID = %d, want %d", got.ID, p.ID)
	}
	if got.Title != p.Title || got.Handle != p.Handle || got.Image != p.Image {
		t.Errorf("got %+v, want %+v", got, p)
	}
	if got.AvailableQuantity != 5 || !got.IsAvailable {
		t.Errorf("availability = (%d, %v), want (5, true)", got.AvailableQuantity, got.IsAvailable)
	}
	if got.CreatedAt.Unix() != p.CreatedAt.Unix() {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
	}
}

func TestCreate_SetsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	p := sampleProduct()
	p.CreatedAt = time.Time{}

	before := time.Now().Add(-time.Second)
	if err := s.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want around now", p.CreatedAt)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, sampleProduct()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := s.Create(ctx, sampleProduct())
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("second Create() error = %v, want ErrConflict", err)
	}

	// Same product in another shop is a separate record.
	other := sampleProduct()
	other.Shop = "s2.myshopify.com"
	if err := s.Create(ctx, other); err != nil {
		t.Fatalf("Create() other shop error = %v", err)
	}
}

func TestLookup_Miss(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Lookup(context.Background(), "s1.myshopify.com", "gid://shopify/Product/404")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got != nil {
		t.Errorf("Lookup() = %+v, want nil", got)
	}
}

func TestPersistAvailability(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := sampleProduct()
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.PersistAvailability(ctx, p.Shop, p.ProductID, 0, false); err != nil {
		t.Fatalf("PersistAvailability() error = %v", err)
	}

	got, err := s.Lookup(ctx, p.Shop, p.ProductID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.AvailableQuantity != 0 || got.IsAvailable {
		t.Errorf("availability = (%d, %v), want (0, false)", got.AvailableQuantity, got.IsAvailable)
	}
	if got.Title != p.Title {
		t.Errorf("Title changed to %q", got.Title)
	}
}

func TestPersistAvailability_Missing(t *testing.T) {
	s := openTestStore(t)

	err := s.PersistAvailability(context.Background(), "s1.myshopify.com", "gid://shopify/Product/404", 1, true)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx, "s1.myshopify.com")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List() = %d records, want 0", len(empty))
	}

	for _, id := range []string{"gid://shopify/Product/1", "gid://shopify/Product/2"} {
		p := sampleProduct()
		p.ProductID = id
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	other := sampleProduct()
	other.Shop = "s2.myshopify.com"
	if err := s.Create(ctx, other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.List(ctx, "s1.myshopify.com")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() = %d records, want 2", len(got))
	}
	if got[0].ProductID != "gid://shopify/Product/1" || got[1].ProductID != "gid://shopify/Product/2" {
		t.Errorf("order = %s, %s", got[0].ProductID, got[1].ProductID)
	}
}

func TestOpenMySQL_InvalidDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"malformed", "not a dsn"},
		{"missing database", "user:pass@tcp(localhost:3306)/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), DriverMySQL, tt.dsn); err == nil {
				t.Error("expected error")
			}
		})
	}
}
