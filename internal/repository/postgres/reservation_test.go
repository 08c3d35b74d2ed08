package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prestamos-backend/internal/domain"
)

func TestReservationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()

	itemID := int32(7)
	expires := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)
	rv := &domain.Reservation{
		ItemID:    &itemID,
		Category:  domain.CategoryNotebook,
		Level:     domain.LevelSecondary,
		Shift:     domain.ShiftMorning,
		Requester: "mgarcia",
		ExpiresAt: expires,
		Status:    domain.ReservationStatusActive,
	}

	mock.ExpectQuery("INSERT INTO reservas").
		WithArgs(&itemID, "NB", "SEC", "M", "", "mgarcia", "", expires, "activa", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inicio"}).AddRow(3, time.Now()))

	err = repo.Create(ctx, rv)
	require.NoError(t, err)
	assert.Equal(t, int32(3), rv.ID)
}

func TestReservationRepository_TerminalFlips(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

	t.Run("CancelFlipsActiveRow", func(t *testing.T) {
		mock.ExpectExec("UPDATE reservas SET estado").
			WithArgs("cancelada", "staff1", at, "no viene", int32(3), "activa").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Cancel(ctx, 3, "staff1", at, "no viene")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CancelSkipsTerminalRow", func(t *testing.T) {
		mock.ExpectExec("UPDATE reservas SET estado").
			WithArgs("cancelada", "staff1", at, "tarde", int32(3), "activa").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Cancel(ctx, 3, "staff1", at, "tarde")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExpireIsConditionalToo", func(t *testing.T) {
		mock.ExpectExec("UPDATE reservas SET estado").
			WithArgs("expirada", int32(3), "activa").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Expire(ctx, 3)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ConvertRecordsApprover", func(t *testing.T) {
		mock.ExpectExec("UPDATE reservas SET estado").
			WithArgs("convertida", "staff1", at, int32(3), "activa").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Convert(ctx, 3, "staff1", at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_HasActiveByRequester(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("mgarcia", "activa").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasActiveByRequester(ctx, "mgarcia")
	require.NoError(t, err)
	assert.True(t, ok)
}
