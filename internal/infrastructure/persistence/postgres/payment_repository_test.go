package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/storefront/internal/application/ports"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

func newMock(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewConnectionFromDB(db), mock
}

func TestPaymentRepository_Record(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)
	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_verifications")).
		WithArgs("accessorize-me-1", "1450", "0001TS9", "success", "", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), ports.PaymentRecord{
		OrderID:    "accessorize-me-1",
		Amount:     "1450",
		RefID:      "0001TS9",
		Status:     payment.StatusSuccess,
		VerifiedAt: at,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_RecordError(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)

	mock.ExpectExec("INSERT INTO payment_verifications").WillReturnError(errors.New("relation does not exist"))

	err := repo.Record(context.Background(), ports.PaymentRecord{OrderID: "x", Status: payment.StatusError})

	assert.Error(t, err)
}

func TestPaymentRepository_DeleteOlderThan(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payment_verifications WHERE verified_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_b.up.sql"), []byte("CREATE TABLE b (id INT)"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_a.up.sql"), []byte("CREATE TABLE a (id INT)"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_a.down.sql"), []byte("DROP TABLE a"), 0o600))

	conn, mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_a.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations (name) VALUES ($1)")).
		WithArgs("002_b.up.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := RunMigrations(context.Background(), conn.GetDB(), dir, logger.Discard())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackFailedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_a.up.sql"), []byte("BROKEN"), 0o600))

	conn, mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("BROKEN").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := RunMigrations(context.Background(), conn.GetDB(), dir, logger.Discard())

	assert.ErrorContains(t, err, "001_a.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationFilesParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "..", "..", "migrations", "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "payment_verifications")
}
