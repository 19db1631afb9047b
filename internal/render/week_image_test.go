package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	// 2025-03-13 четверг
	thursday := time.Date(2025, time.March, 13, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), WeekStart(thursday))

	sunday := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), WeekStart(sunday))
}

func TestWeekImage(t *testing.T) {
	monday := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	booking := uuid.New()

	slots := model.GenerateSlots(model.MustClock("09:00"), model.MustClock("12:00"))
	slots[0].Enabled = false
	slots[0].BookingID = &booking
	slots[2].Enabled = false

	days := []*model.CalendarDay{
		{CourtID: 1, Date: monday, Slots: slots},
		{CourtID: 1, Date: monday.AddDate(0, 0, 1), IsClosed: true, Slots: []model.Slot{}},
	}

	data, err := WeekImage("Корт 1", monday, days, monday.Add(10*time.Hour))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestCalculateHourRange(t *testing.T) {
	days := []*model.CalendarDay{
		{Slots: model.GenerateSlots(model.MustClock("10:00"), model.MustClock("12:30"))},
	}

	hours := calculateHourRange(days)
	assert.Equal(t, 10, hours.start)
	assert.Equal(t, 13, hours.end)

	empty := calculateHourRange(nil)
	assert.Equal(t, defaultMinHour, empty.start)
	assert.Equal(t, defaultMaxHour, empty.end)
}
