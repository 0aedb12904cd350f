package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Applied marks a data migration as done. The schema itself is handled by
// AutoMigrate; these are row fixes that must happen exactly once.
type Applied struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (Applied) TableName() string { return "data_migrations" }

// Migration is one data fix. IDs are never reused or reordered.
type Migration struct {
	ID string
	Up func(tx *gorm.DB) error
}

var journalMigrations = []Migration{
	{ID: "00001_backfill_journal_error_kind", Up: backfillJournalErrorKind},
	{ID: "00002_uppercase_journal_exchange", Up: uppercaseJournalExchange},
}

// Run applies the pending journal data migrations in order.
func Run(db *gorm.DB) error {
	return Apply(db, journalMigrations...)
}

// Apply runs every migration that has no row in data_migrations yet. Each one
// runs in its own transaction together with its bookkeeping row, so a failure
// leaves it pending for the next start.
func Apply(db *gorm.DB, migrations ...Migration) error {
	if db == nil {
		return nil
	}
	for _, m := range migrations {
		if m.ID == "" || m.Up == nil {
			return fmt.Errorf("invalid data migration %q", m.ID)
		}
	}

	if err := db.AutoMigrate(&Applied{}); err != nil {
		return fmt.Errorf("create data_migrations: %w", err)
	}

	for _, m := range migrations {
		done, err := apply(db, m)
		if err != nil {
			return err
		}
		if done {
			logrus.WithField("migration", m.ID).Info("[database] data migration applied")
		}
	}
	return nil
}

func apply(db *gorm.DB, m Migration) (bool, error) {
	done := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing Applied
		err := tx.Where("id = ?", m.ID).Take(&existing).Error
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("lookup data migration %s: %w", m.ID, err)
		}

		if err := m.Up(tx); err != nil {
			return fmt.Errorf("data migration %s: %w", m.ID, err)
		}
		if err := tx.Create(&Applied{ID: m.ID, AppliedAt: time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("record data migration %s: %w", m.ID, err)
		}
		done = true
		return nil
	})
	return done, err
}

// backfillJournalErrorKind tags error rows written before error_kind existed.
func backfillJournalErrorKind(tx *gorm.DB) error {
	if !tx.Migrator().HasTable("trade_journal") {
		return nil
	}
	return tx.Exec(
		"UPDATE trade_journal SET error_kind = ? WHERE status = ? AND (error_kind IS NULL OR error_kind = '')",
		"unknown", "error",
	).Error
}

// uppercaseJournalExchange normalizes venue names written by older CLI runs,
// which stored the flag value as typed. Journal search matches upper case.
func uppercaseJournalExchange(tx *gorm.DB) error {
	if !tx.Migrator().HasTable("trade_journal") {
		return nil
	}
	return tx.Exec("UPDATE trade_journal SET exchange = UPPER(exchange) WHERE exchange <> UPPER(exchange)").Error
}
