package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"traderelay/src/model"
)

func TestExceptionRepositoryCreate(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewExceptionRepositoryWithDB(mockDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "exceptions" (`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	exc := &model.Exception{
		Service:   "relay",
		Module:    "OrderController",
		Method:    "Execute",
		ErrorKind: model.ErrorKindOrder,
		Message:   "boom",
		Level:     "error",
	}
	if err := repo.Create(context.Background(), exc); err != nil {
		t.Fatalf("unexpected error creating exception: %v", err)
	}
	if exc.ID != 3 {
		t.Fatalf("expected id 3, got %d", exc.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestExceptionRepositoryFindByKind(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewExceptionRepositoryWithDB(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	kinds := []string{model.ErrorKindOrder, model.ErrorKindValidation, model.ErrorKindOrder}
	for i, kind := range kinds {
		exc := &model.Exception{
			Service:   "relay",
			Module:    "OrderController",
			Method:    "Execute",
			ErrorKind: kind,
			Message:   kind,
			Level:     "error",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, exc); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	found, err := repo.FindByKind(ctx, model.ErrorKindOrder, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 exception, got %d", len(found))
	}
	if !found[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected newest order exception, got %+v", found[0])
	}
}
