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

func TestLoanRepository_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLoanRepository(db)
	ctx := context.Background()
	when := time.Date(2025, 6, 10, 11, 30, 0, 0, time.UTC)

	t.Run("ClosesOpenLoan", func(t *testing.T) {
		mock.ExpectExec("UPDATE prestamos SET fin_real").
			WithArgs(when, 2.0, "devuelto", int32(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Close(ctx, 4, when, 2.0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("NoopOnAlreadyClosedLoan", func(t *testing.T) {
		mock.ExpectExec("UPDATE prestamos SET fin_real").
			WithArgs(when, 2.0, "devuelto", int32(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Close(ctx, 4, when, 2.0)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_FindOpenByItemCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLoanRepository(db)
	ctx := context.Background()

	cols := []string{"id", "item_id", "code", "nivel", "carrera", "anio", "turno", "aula", "solicitante",
		"inicio", "fin_prevista", "fin_real", "duracion_horas", "estado", "observaciones"}

	t.Run("ReturnsLatestOpenLoan", func(t *testing.T) {
		rows := sqlmock.NewRows(cols).
			AddRow(4, 7, "NB-01", "SEC", nil, nil, "M", "Aula 3", "mgarcia",
				time.Now().Add(-time.Hour), nil, nil, nil, "activo", "")

		mock.ExpectQuery("SELECT .* FROM prestamos p JOIN items i").
			WithArgs("NB-01").
			WillReturnRows(rows)

		loan, err := repo.FindOpenByItemCode(ctx, "NB-01")
		require.NoError(t, err)
		assert.Equal(t, int32(4), loan.ID)
		assert.Equal(t, "mgarcia", loan.Requester)
		assert.Nil(t, loan.ReturnedAt)
		assert.Nil(t, loan.Program)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM prestamos p JOIN items i").
			WithArgs("TB-09").
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.FindOpenByItemCode(ctx, "TB-09")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLoanRepository_LateFraction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLoanRepository(db)
	ctx := context.Background()
	since := time.Now().AddDate(0, 0, -60)

	mock.ExpectQuery("SELECT COALESCE\\(AVG").
		WithArgs("NB", since).
		WillReturnRows(sqlmock.NewRows([]string{"frac"}).AddRow(0.25))

	frac, err := repo.LateFraction(ctx, domain.CategoryNotebook, since)
	require.NoError(t, err)
	assert.Equal(t, 0.25, frac)
}
