package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/aquire/internal/model"
)

func newMock(t *testing.T) (*PostgresProductRepo, *PostgresAppStorageRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresProductRepo(db), NewPostgresAppStorageRepo(db), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

var productColumns = []string{"id", "name", "description", "price_label", "image_url", "model_url", "created_at"}

func TestPostgresProductRepo_VisibleProducts_NoFilter(t *testing.T) {
	products, _, mock := newMock(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE visible = true ORDER BY sort_order ASC, created_at ASC")).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "Chair", "<p>oak</p>", "¥1,000", "", "https://cdn/chair.usdz", created).
			AddRow("p2", "Gift Card", "", "¥5,000", "", "", created))

	got, err := products.VisibleProducts(context.Background(), model.ProductFilter{})
	if err != nil {
		t.Fatalf("VisibleProducts returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "p1" || !got[0].HasModel() {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].HasModel() {
		t.Errorf("got[1] should not have a model: %+v", got[1])
	}
	expectationsMet(t, mock)
}

func TestPostgresProductRepo_VisibleProducts_QueryAndLimit(t *testing.T) {
	products, _, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE visible = true AND name ILIKE $1 ORDER BY sort_order ASC, created_at ASC LIMIT $2")).
		WithArgs(`%50\%%`, 5).
		WillReturnRows(sqlmock.NewRows(productColumns))

	got, err := products.VisibleProducts(context.Background(), model.ProductFilter{Query: " 50% ", Limit: 5})
	if err != nil {
		t.Fatalf("VisibleProducts returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got = %#v, want empty slice", got)
	}
	expectationsMet(t, mock)
}

func TestPostgresProductRepo_VisibleProducts_QueryError(t *testing.T) {
	products, _, mock := newMock(t)

	mock.ExpectQuery("FROM products").WillReturnError(errors.New("connection refused"))

	if _, err := products.VisibleProducts(context.Background(), model.ProductFilter{}); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_Load(t *testing.T) {
	_, storage, mock := newMock(t)
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value, updated_at FROM app_storage WHERE device_id = $1")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow(model.StorageKeyLoggedIn, "true", older).
			AddRow(model.StorageKeyUserEmail, "a@b.c", newer).
			AddRow(model.StorageKeyDebugOverlay, "not-a-bool", older))

	state, err := storage.Load(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !state.LoggedIn || state.Identity != "a@b.c" {
		t.Errorf("state = %+v", state)
	}
	if state.DebugOverlayEnabled {
		t.Error("unparseable flag should read as false")
	}
	if !state.UpdatedAt.Equal(newer) {
		t.Errorf("UpdatedAt = %v, want %v", state.UpdatedAt, newer)
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_LoadEmpty(t *testing.T) {
	_, storage, mock := newMock(t)

	mock.ExpectQuery("FROM app_storage").
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

	state, err := storage.Load(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if state == nil || state.LoggedIn {
		t.Errorf("state = %+v, want logged-out zero state", state)
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_SetLoggedIn(t *testing.T) {
	_, storage, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO app_storage").
		WithArgs("dev-1", model.StorageKeyLoggedIn, "true").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO app_storage").
		WithArgs("dev-1", model.StorageKeyUserEmail, "a@b.c").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := storage.SetLoggedIn(context.Background(), "dev-1", true, "a@b.c"); err != nil {
		t.Fatalf("SetLoggedIn returned error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_SetLoggedIn_RollsBackOnError(t *testing.T) {
	_, storage, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO app_storage").
		WithArgs("dev-1", model.StorageKeyLoggedIn, "false").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	if err := storage.SetLoggedIn(context.Background(), "dev-1", false, ""); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_SetDebugOverlay(t *testing.T) {
	_, storage, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (device_id, key) DO UPDATE")).
		WithArgs("dev-1", model.StorageKeyDebugOverlay, "true").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := storage.SetDebugOverlay(context.Background(), "dev-1", true); err != nil {
		t.Fatalf("SetDebugOverlay returned error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_PurgeStale_CountsDevices(t *testing.T) {
	_, storage, mock := newMock(t)

	// 3キーずつ持つ2デバイスが削除されても、件数はデバイス単位
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(DISTINCT device_id) FROM purged")).
		WithArgs("7776000 seconds").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	deleted, err := storage.PurgeStale(context.Background(), 90*24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeStale returned error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	expectationsMet(t, mock)
}

func TestPostgresAppStorageRepo_PurgeStale_Error(t *testing.T) {
	_, storage, mock := newMock(t)

	mock.ExpectQuery("DELETE FROM app_storage").
		WillReturnError(errors.New("connection reset"))

	if _, err := storage.PurgeStale(context.Background(), time.Hour); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}
