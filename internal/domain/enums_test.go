package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeShift(t *testing.T) {
	// Higher education always lands on the night shift, regardless of
	// what the requester picked.
	assert.Equal(t, ShiftNight, NormalizeShift(LevelHigher, ShiftMorning))
	assert.Equal(t, ShiftNight, NormalizeShift(LevelHigher, ShiftAfternoon))
	assert.Equal(t, ShiftNight, NormalizeShift(LevelHigher, ShiftNight))

	assert.Equal(t, ShiftMorning, NormalizeShift(LevelSecondary, ShiftMorning))
	assert.Equal(t, ShiftAfternoon, NormalizeShift(LevelStaff, ShiftAfternoon))
}

func TestReservationStatusTerminal(t *testing.T) {
	assert.False(t, ReservationStatusActive.Terminal())
	assert.True(t, ReservationStatusConverted.Terminal())
	assert.True(t, ReservationStatusCancelled.Terminal())
	assert.True(t, ReservationStatusExpired.Terminal())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, ShiftMorning.Valid())
	assert.False(t, Shift("X").Valid())

	assert.True(t, LevelHigher.Valid())
	assert.False(t, Level("PRI").Valid())

	assert.True(t, CategoryTablet.Valid())
	assert.False(t, Category("PC").Valid())

	assert.True(t, ProgramTCD.Valid())
	assert.False(t, Program("ING").Valid())
}

func TestLoanClosed(t *testing.T) {
	l := &Loan{}
	assert.False(t, l.Closed())

	now := l.StartedAt
	l.ReturnedAt = &now
	assert.True(t, l.Closed())
}
