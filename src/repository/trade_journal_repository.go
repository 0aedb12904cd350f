package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"traderelay/src/database"
	"traderelay/src/model"
)

// TradeJournalRepository reads and writes the trade journal.
type TradeJournalRepository struct {
	db *gorm.DB
}

func NewTradeJournalRepository() *TradeJournalRepository {
	return &TradeJournalRepository{db: database.MainDB}
}

func NewTradeJournalRepositoryWithDB(db *gorm.DB) *TradeJournalRepository {
	return &TradeJournalRepository{db: db}
}

// TradeJournalSearchOptions filters Search. Zero values are ignored.
type TradeJournalSearchOptions struct {
	Exchange string
	Symbol   string
	Status   string
	Limit    int
}

// Create appends one entry.
func (r *TradeJournalRepository) Create(ctx context.Context, entry *model.TradeJournal) error {
	logger.WithFields(map[string]interface{}{
		"repo":     "TradeJournalRepository",
		"op":       "Create",
		"exchange": entry.Exchange,
		"symbol":   entry.Symbol,
		"status":   entry.Status,
	}).Debug("Appending trade journal entry")

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeJournalRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to append trade journal entry")
		return err
	}
	return nil
}

// Search returns entries newest first.
func (r *TradeJournalRepository) Search(ctx context.Context, options TradeJournalSearchOptions) ([]model.TradeJournal, error) {
	query := r.db.WithContext(ctx).Model(&model.TradeJournal{})

	if options.Exchange != "" {
		query = query.Where("exchange = ?", options.Exchange)
	}
	if options.Symbol != "" {
		query = query.Where("symbol = ?", options.Symbol)
	}
	if options.Status != "" {
		query = query.Where("status = ?", options.Status)
	}

	query = query.Order("created_at DESC, id DESC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}

	var entries []model.TradeJournal
	if err := query.Find(&entries).Error; err != nil {
		logger.WithError(err).Error("Failed to search trade journal")
		return nil, err
	}
	return entries, nil
}
