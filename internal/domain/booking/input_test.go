package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

func TestInput_Validate(t *testing.T) {
	today := day(2026, time.June, 10)
	clientID := uuid.New()
	vehicleID := uuid.New()

	valid := Input{
		ClientID:  clientID,
		VehicleID: vehicleID,
		StartDate: day(2026, time.June, 11),
		EndDate:   day(2026, time.June, 14),
	}

	t.Run("valid input normalizes to a day range", func(t *testing.T) {
		got, err := valid.Validate(today)
		require.NoError(t, err)
		assert.Equal(t, clientID, got.ClientID)
		assert.Equal(t, vehicleID, got.VehicleID)
		assert.Equal(t, day(2026, time.June, 11), got.Range.Start)
		assert.Equal(t, day(2026, time.June, 14), got.Range.End)
	})

	t.Run("time of day is dropped", func(t *testing.T) {
		in := valid
		in.StartDate = time.Date(2026, time.June, 11, 18, 30, 0, 0, time.UTC)
		in.EndDate = time.Date(2026, time.June, 14, 2, 0, 0, 0, time.UTC)
		got, err := in.Validate(today)
		require.NoError(t, err)
		assert.Equal(t, day(2026, time.June, 11), got.Range.Start)
		assert.Equal(t, day(2026, time.June, 14), got.Range.End)
	})

	t.Run("start on today is allowed", func(t *testing.T) {
		in := valid
		in.StartDate = today
		_, err := in.Validate(today)
		assert.NoError(t, err)
	})

	t.Run("same-day booking is allowed", func(t *testing.T) {
		in := valid
		in.StartDate = day(2026, time.June, 11)
		in.EndDate = day(2026, time.June, 11)
		got, err := in.Validate(today)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Range.Days())
	})

	failures := []struct {
		name   string
		mutate func(*Input)
		kind   apperr.Kind
	}{
		{"missing client", func(in *Input) { in.ClientID = uuid.Nil }, apperr.KindMissingField},
		{"missing vehicle", func(in *Input) { in.VehicleID = uuid.Nil }, apperr.KindMissingField},
		{"missing start date", func(in *Input) { in.StartDate = time.Time{} }, apperr.KindMissingField},
		{"missing end date", func(in *Input) { in.EndDate = time.Time{} }, apperr.KindMissingField},
		{"end before start", func(in *Input) {
			in.StartDate = day(2026, time.June, 14)
			in.EndDate = day(2026, time.June, 11)
		}, apperr.KindInvalidDateRange},
		{"start in the past", func(in *Input) {
			in.StartDate = day(2026, time.June, 9)
			in.EndDate = day(2026, time.June, 14)
		}, apperr.KindPastStartDate},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := in.Validate(today)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, tt.kind), "want kind %s, got %v", tt.kind, err)
		})
	}

	t.Run("missing fields win over date problems", func(t *testing.T) {
		in := Input{
			ClientID:  uuid.Nil,
			VehicleID: vehicleID,
			StartDate: day(2026, time.June, 14),
			EndDate:   day(2026, time.June, 11),
		}
		_, err := in.Validate(today)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindMissingField))
	})

	t.Run("invalid range wins over past start", func(t *testing.T) {
		in := valid
		in.StartDate = day(2026, time.June, 8)
		in.EndDate = day(2026, time.June, 5)
		_, err := in.Validate(today)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidDateRange))
	})
}
