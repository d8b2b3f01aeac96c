package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ServiceConfig describes the shared dependencies of the journal services.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

func (cfg ServiceConfig) normalized() (ServiceConfig, error) {
	if cfg.Database == nil {
		return ServiceConfig{}, fmt.Errorf("journal: database handle is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg, nil
}

// scoped applies the caller's identity to a query. Every repository read
// and write goes through this single filter; the ownership-opacity rule
// (another user's record is indistinguishable from a missing one) falls
// out of it rather than being re-implemented per entity kind.
func scoped(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Where("user_id = ?", ownerID)
}

// takeOwned loads one record matching the condition within the owner's
// scope, collapsing "absent" and "not yours" into ErrNotFound.
func takeOwned[T any](ctx context.Context, db *gorm.DB, ownerID uint, condition string, args ...any) (T, error) {
	var entity T
	err := scoped(db.WithContext(ctx), ownerID).Where(condition, args...).Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity, ErrNotFound
	}
	if err != nil {
		return entity, err
	}
	return entity, nil
}

// listOwned returns the owner's records narrowed by the filter against the
// given timestamp column, ordered ascending by that column with primary
// key as the tie breaker.
func listOwned[T any](ctx context.Context, db *gorm.DB, ownerID uint, filter ListFilter, timestampColumn string) ([]T, error) {
	query := scoped(db.WithContext(ctx), ownerID)
	query, err := filter.apply(query, timestampColumn)
	if err != nil {
		return nil, err
	}

	entities := make([]T, 0)
	if err := query.Order(timestampColumn + " ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}
