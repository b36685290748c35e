package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
)

type fakeRepo struct {
	rows      []models.Notification
	createErr error
	markErr   error
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	out := []models.Notification{}
	for _, row := range f.rows {
		if row.UserID != params.UserID {
			continue
		}
		if params.UnreadOnly && row.ReadAt != nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, userID, id uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markErr != nil {
		return notificationMarkResult{}, f.markErr
	}
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			updated := f.rows[i].ReadAt == nil
			f.rows[i].ReadAt = &now
			return notificationMarkResult{Updated: updated, Found: true}, nil
		}
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	for i := range f.rows {
		if f.rows[i].UserID == userID && f.rows[i].ReadAt == nil {
			f.rows[i].ReadAt = &now
			count++
		}
	}
	return count, nil
}

func TestNewService_RequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected dependency error")
	}
}

func TestList_FiltersUnread(t *testing.T) {
	userID := uuid.New()
	read := time.Now()
	repo := &fakeRepo{rows: []models.Notification{
		{ID: uuid.New(), UserID: userID, Type: enums.NotificationTypeOrderStatus},
		{ID: uuid.New(), UserID: userID, Type: enums.NotificationTypeLowStock, ReadAt: &read},
		{ID: uuid.New(), UserID: uuid.New(), Type: enums.NotificationTypeOrderStatus},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 unread row, got %d", len(res.Items))
	}
}

func TestList_RejectsBadCursor(t *testing.T) {
	svc, _ := NewService(&fakeRepo{})
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "???"})
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	svc, _ := NewService(&fakeRepo{})
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{rows: []models.Notification{
		{ID: uuid.New(), UserID: userID},
		{ID: uuid.New(), UserID: userID},
	}}
	svc, _ := NewService(repo)
	count, err := svc.MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("mark all failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 updates, got %d", count)
	}
}

func TestNotifier_SwallowsErrors(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	n := NewNotifier(repo, nil)

	// must not panic or propagate
	n.Notify(context.Background(), uuid.New(), enums.NotificationTypePayment, "t", "m")

	repo.createErr = nil
	userID := uuid.New()
	n.Notify(context.Background(), userID, enums.NotificationTypePayment, "t", "m")
	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(repo.rows))
	}
}
