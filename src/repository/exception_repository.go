package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"traderelay/src/database"
	"traderelay/src/model"
)

// ExceptionRepository stores captured pipeline failures.
type ExceptionRepository struct {
	db *gorm.DB
}

func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{db: database.MainDB}
}

func NewExceptionRepositoryWithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

func (r *ExceptionRepository) Create(ctx context.Context, exc *model.Exception) error {
	logger.WithFields(map[string]interface{}{
		"service": exc.Service,
		"module":  exc.Module,
		"method":  exc.Method,
		"kind":    exc.ErrorKind,
	}).Debug("Persisting exception")

	return r.db.WithContext(ctx).Create(exc).Error
}

// FindByKind returns the latest exceptions of one kind.
func (r *ExceptionRepository) FindByKind(ctx context.Context, kind string, limit int) ([]model.Exception, error) {
	var out []model.Exception
	query := r.db.WithContext(ctx).Where("error_kind = ?", kind).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
