package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/session"
)

func newChatServiceForTest(store *mockStore) (*chatService, session.Store) {
	notifier := &mockNotifier{}
	sessions := session.NewMemoryStore()

	inventory := NewInventoryService(store, notifier)
	loans := NewLoanService(store, notifier).(*loanService)
	loans.now = fixedNow
	reservations := NewReservationService(store, notifier, time.UTC, 23).(*reservationService)
	reservations.now = fixedNow

	chat := NewChatService(sessions, inventory, reservations, loans, time.UTC).(*chatService)
	chat.now = fixedNow
	return chat, sessions
}

func TestInferShift(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		hour, min int
		want      domain.Shift
	}{
		{6, 0, domain.ShiftMorning},
		{12, 0, domain.ShiftMorning}, // upper bound is inclusive
		{12, 30, domain.ShiftNight},  // gap between morning and afternoon
		{13, 0, domain.ShiftAfternoon},
		{17, 0, domain.ShiftAfternoon}, // upper bound is inclusive
		{17, 10, domain.ShiftNight},    // gap before the evening window
		{17, 15, domain.ShiftNight},
		{22, 59, domain.ShiftNight},
		{23, 30, domain.ShiftNight},
		{3, 0, domain.ShiftNight},
	}
	for _, tc := range cases {
		got := inferShift(day.Add(time.Duration(tc.hour)*time.Hour + time.Duration(tc.min)*time.Minute))
		assert.Equal(t, tc.want, got, "at %02d:%02d", tc.hour, tc.min)
	}
}

func TestNormalizeMessage(t *testing.T) {
	assert.Equal(t, "si", normalizeMessage("  Sí "))
	assert.Equal(t, "mis prestamos", normalizeMessage("Mis Préstamos"))
	assert.Equal(t, "cambiar a manana", normalizeMessage("cambiar a MAÑANA"))
}

func TestChatReserveFlow(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	chat, _ := newChatServiceForTest(store)

	item := &domain.Item{ID: 7, Code: "NB-01", Category: domain.CategoryNotebook, Status: domain.ItemStatusAvailable}
	store.reservations.On("ListActiveByRequester", ctx, "mgarcia").Return([]domain.Reservation{}, nil)
	store.items.On("GetByCode", ctx, "NB-01").Return(item, nil)
	store.reservations.On("HasActiveByRequester", ctx, "mgarcia").Return(false, nil)
	store.items.On("Transition", ctx, int32(7),
		[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusReserved).Return(nil)

	var created *domain.Reservation
	store.reservations.On("Create", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Reservation)
		}).Return(nil)

	r1, err := chat.HandleMessage(ctx, "mgarcia", "reservar NB-01")
	require.NoError(t, err)
	assert.Contains(t, r1.Reply, "nivel")

	r2, err := chat.HandleMessage(ctx, "mgarcia", "Secundario")
	require.NoError(t, err)
	assert.Contains(t, r2.Reply, "aula")

	r3, err := chat.HandleMessage(ctx, "mgarcia", "-")
	require.NoError(t, err)
	assert.Contains(t, r3.Reply, "Confirm")

	r4, err := chat.HandleMessage(ctx, "mgarcia", "confirmo")
	require.NoError(t, err)
	assert.Contains(t, r4.Reply, "NB-01")

	require.NotNil(t, created)
	assert.Equal(t, "NB-01", created.ItemCode)
	assert.Equal(t, domain.ReservationStatusActive, created.Status)
	assert.Equal(t, domain.LevelSecondary, created.Level)
	assert.Equal(t, domain.ShiftMorning, created.Shift) // 9:30 falls in the morning window
	assert.Equal(t, "", created.Classroom)
	assert.Equal(t, "mgarcia", created.Requester)
}

func TestChatHigherEducationAsksProgramAndYear(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	chat, _ := newChatServiceForTest(store)

	item := &domain.Item{ID: 7, Code: "NB-01", Category: domain.CategoryNotebook, Status: domain.ItemStatusAvailable}
	store.reservations.On("ListActiveByRequester", ctx, "jlopez").Return([]domain.Reservation{}, nil)
	store.items.On("GetByCode", ctx, "NB-01").Return(item, nil)

	_, err := chat.HandleMessage(ctx, "jlopez", "reservar NB-01")
	require.NoError(t, err)

	r, err := chat.HandleMessage(ctx, "jlopez", "Superior")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "carrera")

	r, err = chat.HandleMessage(ctx, "jlopez", "TCD")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "año")

	// Programs only run two years; anything else re-prompts.
	r, err = chat.HandleMessage(ctx, "jlopez", "3")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "1 o 2")

	r, err = chat.HandleMessage(ctx, "jlopez", "2")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "aula")

	r, err = chat.HandleMessage(ctx, "jlopez", "Lab 1")
	require.NoError(t, err)
	// Superior always lands on the night shift in the summary.
	assert.Contains(t, r.Reply, "Noche")
}

func TestChatInvalidAnswerKeepsPendingState(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	chat, sessions := newChatServiceForTest(store)

	item := &domain.Item{ID: 7, Code: "NB-01", Category: domain.CategoryNotebook, Status: domain.ItemStatusAvailable}
	store.reservations.On("ListActiveByRequester", ctx, "mgarcia").Return([]domain.Reservation{}, nil)
	store.items.On("GetByCode", ctx, "NB-01").Return(item, nil)

	_, err := chat.HandleMessage(ctx, "mgarcia", "reservar NB-01")
	require.NoError(t, err)

	r, err := chat.HandleMessage(ctx, "mgarcia", "bachillerato")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "nivel")

	sess, err := sessions.Get(ctx, "mgarcia")
	require.NoError(t, err)
	require.NotNil(t, sess.Pending)
	assert.Equal(t, session.CursorAwaitingLevel, sess.Pending.Cursor)
}

func TestChatCancelPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("BareCancelarClearsPendingFlow", func(t *testing.T) {
		store := newMockStore()
		chat, sessions := newChatServiceForTest(store)

		item := &domain.Item{ID: 7, Code: "NB-01", Category: domain.CategoryNotebook, Status: domain.ItemStatusAvailable}
		store.reservations.On("ListActiveByRequester", ctx, "mgarcia").Return([]domain.Reservation{}, nil)
		store.items.On("GetByCode", ctx, "NB-01").Return(item, nil)

		_, err := chat.HandleMessage(ctx, "mgarcia", "reservar NB-01")
		require.NoError(t, err)

		r, err := chat.HandleMessage(ctx, "mgarcia", "cancelar")
		require.NoError(t, err)
		assert.Contains(t, r.Reply, "no hago nada")

		sess, err := sessions.Get(ctx, "mgarcia")
		require.NoError(t, err)
		assert.Nil(t, sess)
		// The persisted reservation is untouched.
		store.reservations.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BareCancelarWithoutFlowCancelsActiveReservation", func(t *testing.T) {
		store := newMockStore()
		chat, _ := newChatServiceForTest(store)

		itemID := int32(7)
		active := domain.Reservation{ID: 3, ItemID: &itemID, ItemCode: "NB-01", Status: domain.ReservationStatusActive, Requester: "mgarcia"}
		store.reservations.On("ListActiveByRequester", ctx, "mgarcia").Return([]domain.Reservation{active}, nil)
		store.reservations.On("GetByID", ctx, int32(3)).Return(&active, nil)
		store.reservations.On("Cancel", ctx, int32(3), "mgarcia", fixedNow(), "cancelada por chat").Return(true, nil)
		store.items.On("Transition", ctx, int32(7),
			[]domain.ItemStatus{domain.ItemStatusReserved}, domain.ItemStatusAvailable).Return(nil)

		r, err := chat.HandleMessage(ctx, "mgarcia", "cancelar")
		require.NoError(t, err)
		assert.Contains(t, r.Reply, "cancelada")
	})
}

func TestChatReturnFlow(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	chat, _ := newChatServiceForTest(store)

	started := fixedNow().Add(-2 * time.Hour)
	open := &domain.Loan{ID: 4, ItemID: 7, ItemCode: "NB-01", Requester: "mgarcia", StartedAt: started, Status: domain.LoanStatusOpen}
	store.loans.On("FindOpenByItemCode", ctx, "nb-01").Return(open, nil)
	store.loans.On("GetByID", ctx, int32(4)).Return(open, nil)
	store.loans.On("Close", ctx, int32(4), fixedNow(), 2.0).Return(true, nil)
	store.items.On("AddUsage", ctx, int32(7), 2.0).Return(nil)
	store.items.On("Transition", ctx, int32(7),
		[]domain.ItemStatus{domain.ItemStatusInUse}, domain.ItemStatusAvailable).Return(nil)

	r, err := chat.HandleMessage(ctx, "mgarcia", "devolver NB-01")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "Confirmás la devolución")

	r, err = chat.HandleMessage(ctx, "mgarcia", "sí")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "2.00 h")
}

func TestChatReturnRejectsOtherRequestersLoan(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	chat, _ := newChatServiceForTest(store)

	open := &domain.Loan{ID: 4, ItemID: 7, ItemCode: "NB-01", Requester: "otra", Status: domain.LoanStatusOpen}
	store.loans.On("FindOpenByItemCode", ctx, "nb-01").Return(open, nil)

	r, err := chat.HandleMessage(ctx, "mgarcia", "devolver NB-01")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "no está a tu nombre")
}

func TestChatMenuAndFallback(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	chat, _ := newChatServiceForTest(store)

	r, err := chat.HandleMessage(ctx, "mgarcia", "menu")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "reservar")
	assert.NotEmpty(t, r.Suggestions)

	r, err = chat.HandleMessage(ctx, "mgarcia", "qué onda")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "reservar")
}
