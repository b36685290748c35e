package designs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// Service manages designer submissions and their review lifecycle.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Design, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Create(ctx context.Context, designerID uuid.UUID, input Input) (*models.Design, error)
	Update(ctx context.Context, designerID, id uuid.UUID, input Input) (*models.Design, error)
	Delete(ctx context.Context, designerID, id uuid.UUID) error
	Submit(ctx context.Context, designerID, id uuid.UUID) (*models.Design, error)
	Review(ctx context.Context, id uuid.UUID, input ReviewInput) (*models.Design, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string)
}

type service struct {
	repo   Repository
	alerts notifier
	logg   *logger.Logger
}

// Input carries design create/update fields.
type Input struct {
	Name        string
	Description string
	CategoryID  uuid.UUID
	Images      types.ImageList
}

// ListParams filters the design listing.
type ListParams struct {
	DesignerID *uuid.UUID
	Status     *enums.DesignStatus
	Limit      int
	Cursor     *pagination.Cursor
}

// ListResult is one page of designs.
type ListResult struct {
	Designs    []models.Design
	NextCursor *pagination.Cursor
}

// ReviewInput carries an inventory manager's decision on a pending design.
type ReviewInput struct {
	Approve         bool
	RejectionReason string
}

// NewService wires designs dependencies. The notifier and logger are optional.
func NewService(repo Repository, alerts notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "designs repository required")
	}
	return &service{repo: repo, alerts: alerts, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, listDesignsParams{
		DesignerID: params.DesignerID,
		Status:     params.Status,
		Limit:      params.Limit,
		Cursor:     params.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list designs")
	}
	return &ListResult{Designs: rows, NextCursor: next}, nil
}

func (s *service) Create(ctx context.Context, designerID uuid.UUID, input Input) (*models.Design, error) {
	if designerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "designer id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design name required")
	}
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}

	row := &models.Design{
		DesignerID:  designerID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		Status:      enums.DesignStatusDraft,
		Images:      input.Images,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create design")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, designerID, id uuid.UUID, input Input) (*models.Design, error) {
	row, err := s.ownedEditable(ctx, designerID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" {
		fields["name"] = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		fields["description"] = desc
	}
	if input.CategoryID != uuid.Nil {
		fields["category_id"] = input.CategoryID
	}
	if input.Images != nil {
		fields["images"] = input.Images
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	// A rejected design goes back to draft once the designer touches it.
	if row.Status == enums.DesignStatusRejected {
		fields["status"] = enums.DesignStatusDraft
		fields["rejection_reason"] = nil
	}

	if _, err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update design")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, designerID, id uuid.UUID) error {
	if _, err := s.ownedEditable(ctx, designerID, id); err != nil {
		return err
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete design")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	return nil
}

func (s *service) Submit(ctx context.Context, designerID, id uuid.UUID) (*models.Design, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.DesignerID != designerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "design belongs to another designer")
	}

	affected, err := s.repo.TransitionStatus(ctx, id,
		[]enums.DesignStatus{enums.DesignStatusDraft},
		map[string]any{"status": enums.DesignStatusPending})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit design")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft designs can be submitted")
	}
	return s.Get(ctx, id)
}

func (s *service) Review(ctx context.Context, id uuid.UUID, input ReviewInput) (*models.Design, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Approve {
		fields["status"] = enums.DesignStatusApproved
		fields["approved_at"] = time.Now().UTC()
		fields["rejection_reason"] = nil
	} else {
		reason := strings.TrimSpace(input.RejectionReason)
		if reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
		}
		fields["status"] = enums.DesignStatusRejected
		fields["rejection_reason"] = reason
	}

	affected, err := s.repo.TransitionStatus(ctx, id,
		[]enums.DesignStatus{enums.DesignStatusPending}, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review design")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending designs can be reviewed")
	}

	reviewed, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyDesigner(ctx, row, reviewed)
	return reviewed, nil
}

func (s *service) ownedEditable(ctx context.Context, designerID, id uuid.UUID) (*models.Design, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.DesignerID != designerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "design belongs to another designer")
	}
	if row.Status != enums.DesignStatusDraft && row.Status != enums.DesignStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "design can only be edited while draft or rejected")
	}
	return row, nil
}

func (s *service) notifyDesigner(ctx context.Context, before, after *models.Design) {
	if s.alerts == nil {
		return
	}
	var message string
	if after.Status == enums.DesignStatusApproved {
		message = fmt.Sprintf("Your design %q has been approved.", after.Name)
	} else {
		reason := ""
		if after.RejectionReason != nil {
			reason = *after.RejectionReason
		}
		message = fmt.Sprintf("Your design %q was rejected: %s", after.Name, reason)
	}
	s.alerts.Notify(ctx, before.DesignerID, enums.NotificationTypeDesignReview, "Design review", message)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "design_id", after.ID.String()), "design review recorded")
	}
}
