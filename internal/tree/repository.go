package tree

import (
	"context"
	"errors"

	"github.com/corpdrive/server/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists nodes. Every method is scoped to a tenant; a node owned
// by another tenant is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, node *models.Node) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Node, error)
	// FindChild returns nil when no child matches.
	FindChild(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, name string, nodeType models.NodeType) (*models.Node, error)
	ListChildren(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) ([]models.Node, error)
	UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string) error
	// DeleteNodes removes every listed node in a single transaction.
	DeleteNodes(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

const deleteChunkSize = 500

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, node *models.Node) error {
	if node.TenantID == uuid.Nil {
		return errors.New("node has no tenant")
	}
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *GormRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Node, error) {
	var node models.Node
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("item")
	}
	if err != nil {
		return nil, upstream("load item", err)
	}
	return &node, nil
}

func (r *GormRepository) FindChild(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, name string, nodeType models.NodeType) (*models.Node, error) {
	var nodes []models.Node
	err := r.childScope(ctx, tenantID, parentID).
		Where("name = ? AND type = ?", name, nodeType).
		Limit(1).
		Find(&nodes).Error
	if err != nil {
		return nil, upstream("look up item", err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &nodes[0], nil
}

func (r *GormRepository) ListChildren(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) ([]models.Node, error) {
	nodes := []models.Node{}
	err := r.childScope(ctx, tenantID, parentID).
		Order("type DESC, name ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, upstream("list items", err)
	}
	return nodes, nil
}

func (r *GormRepository) UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Node{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("item")
	}
	return nil
}

func (r *GormRepository) DeleteNodes(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += deleteChunkSize {
			end := start + deleteChunkSize
			if end > len(ids) {
				end = len(ids)
			}
			err := tx.Where("tenant_id = ? AND id IN ?", tenantID, ids[start:end]).
				Delete(&models.Node{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRepository) childScope(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if parentID == nil {
		return query.Where("parent_id IS NULL")
	}
	return query.Where("parent_id = ?", *parentID)
}
