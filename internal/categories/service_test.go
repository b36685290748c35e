package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestCreate_DuplicateNameConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, Input{Name: "outerwear"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := svc.Create(ctx, Input{Name: "outerwear"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_UnknownParent(t *testing.T) {
	svc, _ := newTestService(t)
	parent := uuid.New()
	_, err := svc.Create(context.Background(), Input{Name: "scarves", ParentID: &parent})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing parent, got %v", err)
	}
}

func TestUpdate_SelfParentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	row, err := svc.Create(ctx, Input{Name: "knitwear"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = svc.Update(ctx, row.ID, Input{ParentID: &row.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDelete_GuardsChildrenAndProducts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, Input{Name: "tops"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if _, err := svc.Create(ctx, Input{Name: "shirts", ParentID: &parent.ID}); err != nil {
		t.Fatalf("create child: %v", err)
	}

	err = svc.Delete(ctx, parent.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict with children, got %v", err)
	}

	leaf, err := svc.Create(ctx, Input{Name: "vests"})
	if err != nil {
		t.Fatalf("create leaf: %v", err)
	}
	product := models.Product{
		ID:          uuid.New(),
		CategoryID:  leaf.ID,
		Name:        "quilted vest",
		Description: "warm",
		Price:       decimal.RequireFromString("79.00"),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	err = svc.Delete(ctx, leaf.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict with products, got %v", err)
	}

	empty, err := svc.Create(ctx, Input{Name: "hats"})
	if err != nil {
		t.Fatalf("create empty: %v", err)
	}
	if err := svc.Delete(ctx, empty.ID); err != nil {
		t.Fatalf("expected delete to succeed: %v", err)
	}
}
