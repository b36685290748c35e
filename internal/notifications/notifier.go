package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
)

// Notifier records in-app notifications on a best-effort basis. Failures are
// logged and swallowed so a notification can never fail the operation that
// triggered it.
type Notifier struct {
	repo Repository
	logg *logger.Logger
}

// NewNotifier wires the fire-and-forget notifier.
func NewNotifier(repo Repository, logg *logger.Logger) *Notifier {
	return &Notifier{repo: repo, logg: logg}
}

// Notify persists one notification row outside any caller transaction.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) {
	if n == nil || n.repo == nil || userID == uuid.Nil {
		return
	}
	row := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := n.repo.Create(ctx, row); err != nil && n.logg != nil {
		fields := map[string]any{"user_id": userID.String(), "notification_type": string(kind)}
		n.logg.Error(n.logg.WithFields(ctx, fields), "failed to record notification", err)
	}
}
