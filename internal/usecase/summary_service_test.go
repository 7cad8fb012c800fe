package usecase

import (
	"testing"

	"github.com/aimeal/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMeals is a fixed MealReader
type stubMeals struct {
	meals []domain.Meal
	today string
}

func (s stubMeals) List() []domain.Meal { return s.meals }

func (s stubMeals) ByDate(date string) []domain.Meal {
	out := []domain.Meal{}
	for _, m := range s.meals {
		if m.Date == date {
			out = append(out, m)
		}
	}
	return out
}

func (s stubMeals) Today() string { return s.today }

func newStubMeals() stubMeals {
	mk := func(date string, foods ...domain.FoodItem) domain.Meal {
		m := domain.Meal{Date: date, Foods: foods}
		m.Recalculate()
		return m
	}
	return stubMeals{
		today: "2026-10-18",
		meals: []domain.Meal{
			mk("2026-10-18", domain.FoodItem{Calories: 320, Protein: 8, Carbs: 54, Fat: 6}),
			mk("2026-10-18", domain.FoodItem{Calories: 165, Protein: 31, Fat: 3.6, Quantity: 2}),
			mk("2026-10-15", domain.FoodItem{Calories: 500}),
			mk("2026-10-01", domain.FoodItem{Calories: 1800}),
			mk("2026-09-30", domain.FoodItem{Calories: 900}),
		},
	}
}

func TestSummaryService_Day(t *testing.T) {
	svc := NewSummaryService(newStubMeals(), 0)

	day, err := svc.Day("")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-18", day.Date)
	assert.Equal(t, 650, day.Calories)
	assert.Equal(t, 2000, day.Goal)
	assert.Equal(t, 1350, day.Remaining)
	assert.Equal(t, 2, day.MealCount)
	assert.InDelta(t, 70.0, day.Macros.Protein, 1e-9)
	assert.InDelta(t, 13.2, day.Macros.Fat, 1e-9)

	over, err := svc.Day("2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, 200, over.Remaining)

	empty, err := svc.Day("2026-01-01")
	require.NoError(t, err)
	assert.Zero(t, empty.Calories)
	assert.NotNil(t, empty.Meals)

	_, err = svc.Day("yesterday")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSummaryService_DayRemainingNeverNegative(t *testing.T) {
	svc := NewSummaryService(newStubMeals(), 500)

	day, err := svc.Day("2026-10-18")
	require.NoError(t, err)
	assert.Zero(t, day.Remaining)
}

func TestSummaryService_Week(t *testing.T) {
	svc := NewSummaryService(newStubMeals(), 2000)

	week, err := svc.Week("")
	require.NoError(t, err)

	require.Len(t, week.Days, 7)
	assert.Equal(t, "2026-10-12", week.Days[0].Date)
	assert.Equal(t, "Mon", week.Days[0].Day)
	assert.Equal(t, "2026-10-18", week.Days[6].Date)
	assert.Equal(t, "Sun", week.Days[6].Day)
	assert.Equal(t, 500, week.Days[3].Calories)
	assert.Equal(t, 650, week.Days[6].Calories)
	assert.Equal(t, 1150, week.Total)
	assert.Equal(t, 164, week.Average)

	_, err = svc.Week("2026-13-01")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSummaryService_Calendar(t *testing.T) {
	svc := NewSummaryService(newStubMeals(), 0)

	// October 2026 starts on a Thursday and has 31 days
	cal, err := svc.Calendar(2026, 10)
	require.NoError(t, err)

	require.Len(t, cal.Days, 35)
	assert.Equal(t, CalendarDay{Day: 27}, cal.Days[0])
	assert.Equal(t, CalendarDay{Day: 30}, cal.Days[3])

	first := cal.Days[4]
	assert.Equal(t, 1, first.Day)
	assert.True(t, first.IsCurrentMonth)
	assert.True(t, first.HasData)
	assert.Equal(t, "2026-10-01", first.DateKey)
	assert.Equal(t, 1800, first.Calories)

	second := cal.Days[5]
	assert.False(t, second.HasData)
	assert.Equal(t, "2026-10-02", second.DateKey)

	assert.True(t, cal.Days[4+17].HasData)
	assert.Equal(t, 650, cal.Days[4+17].Calories)

	last := cal.Days[34]
	assert.Equal(t, 31, last.Day)
	assert.True(t, last.IsCurrentMonth)
	assert.Equal(t, "2026-10-31", last.DateKey)

	_, err = svc.Calendar(2026, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSummaryService_CalendarTrailingCells(t *testing.T) {
	svc := NewSummaryService(stubMeals{}, 0)

	// November 2026 starts on a Sunday and has 30 days
	cal, err := svc.Calendar(2026, 11)
	require.NoError(t, err)
	require.Len(t, cal.Days, 35)
	assert.Equal(t, 30, cal.Days[29].Day)
	assert.Equal(t, CalendarDay{Day: 1}, cal.Days[30])
	assert.Equal(t, CalendarDay{Day: 5}, cal.Days[34])
}

func TestSummaryService_CalendarWholeWeeks(t *testing.T) {
	svc := NewSummaryService(stubMeals{}, 0)

	// February 2026 starts on a Sunday and has 28 days
	cal, err := svc.Calendar(2026, 2)
	require.NoError(t, err)
	assert.Len(t, cal.Days, 28)
	assert.Equal(t, 1, cal.Days[0].Day)
	assert.True(t, cal.Days[0].IsCurrentMonth)
}
