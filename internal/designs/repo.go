package designs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
)

// Repository exposes persistence helpers for designs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Design, error)
	List(ctx context.Context, params listDesignsParams) ([]models.Design, *pagination.Cursor, error)
	Create(ctx context.Context, row *models.Design) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.DesignStatus, fields map[string]any) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a designs repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listDesignsParams struct {
	DesignerID *uuid.UUID
	Status     *enums.DesignStatus
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	var row models.Design
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listDesignsParams) ([]models.Design, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Design{})
	if params.DesignerID != nil {
		query = query.Where("designer_id = ?", *params.DesignerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Design
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		next := rows[normalized-1]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) Create(ctx context.Context, row *models.Design) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Design{}).
		Where("id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Design{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// TransitionStatus applies fields only when the row is currently in one of the
// expected statuses. Zero rows affected means the design moved concurrently or
// does not exist.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.DesignStatus, fields map[string]any) (int64, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Design{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}
