package usecase

import (
	"fmt"
	"time"

	"github.com/aimeal/backend/internal/domain"
)

// DefaultCalorieGoal is the daily target used when none is configured
const DefaultCalorieGoal = 2000

// MealReader is the read side of the meal store
type MealReader interface {
	List() []domain.Meal
	ByDate(date string) []domain.Meal
	Today() string
}

// DaySummary aggregates one calendar day
type DaySummary struct {
	Date      string        `json:"date"`
	Calories  int           `json:"calories"`
	Goal      int           `json:"goal"`
	Remaining int           `json:"remaining"`
	Macros    domain.Macros `json:"macros"`
	MealCount int           `json:"mealCount"`
	Meals     []domain.Meal `json:"meals"`
}

// DayTotal is one bar of the weekly chart
type DayTotal struct {
	Date     string `json:"date"`
	Day      string `json:"day"`
	Calories int    `json:"calories"`
}

// WeekSummary holds seven consecutive daily totals ending at End
type WeekSummary struct {
	End     string     `json:"end"`
	Days    []DayTotal `json:"days"`
	Total   int        `json:"total"`
	Average int        `json:"average"`
	Goal    int        `json:"goal"`
}

// CalendarDay is one cell of a month grid. Cells outside the month carry
// the neighbouring month's day number and no date key.
type CalendarDay struct {
	Day            int    `json:"day"`
	IsCurrentMonth bool   `json:"isCurrentMonth"`
	HasData        bool   `json:"hasData"`
	DateKey        string `json:"dateKey"`
	Calories       int    `json:"calories,omitempty"`
}

// CalendarMonth is a Sunday-first grid covering whole weeks
type CalendarMonth struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// SummaryService computes dashboard, insights and calendar aggregates
type SummaryService struct {
	meals       MealReader
	calorieGoal int
}

// NewSummaryService creates a summary service. goal <= 0 uses DefaultCalorieGoal.
func NewSummaryService(meals MealReader, goal int) *SummaryService {
	if goal <= 0 {
		goal = DefaultCalorieGoal
	}
	return &SummaryService{meals: meals, calorieGoal: goal}
}

// Day summarizes date (YYYY-MM-DD). An empty date means today.
func (s *SummaryService) Day(date string) (DaySummary, error) {
	if date == "" {
		date = s.meals.Today()
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return DaySummary{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}

	meals := s.meals.ByDate(date)

	summary := DaySummary{
		Date:      date,
		Goal:      s.calorieGoal,
		MealCount: len(meals),
		Meals:     meals,
	}
	for _, m := range meals {
		summary.Calories += m.Calories
		macros := domain.TotalMacros(m.Foods)
		summary.Macros.Protein += macros.Protein
		summary.Macros.Carbs += macros.Carbs
		summary.Macros.Fat += macros.Fat
		summary.Macros.Fiber += macros.Fiber
	}
	summary.Remaining = max(s.calorieGoal-summary.Calories, 0)

	return summary, nil
}

// Week returns the seven days ending at end (YYYY-MM-DD). An empty end means today.
func (s *SummaryService) Week(end string) (WeekSummary, error) {
	if end == "" {
		end = s.meals.Today()
	}
	endDate, err := time.Parse(domain.DateLayout, end)
	if err != nil {
		return WeekSummary{}, fmt.Errorf("%w: end must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}

	totals := s.caloriesByDate()

	week := WeekSummary{End: end, Goal: s.calorieGoal, Days: make([]DayTotal, 0, 7)}
	for i := 6; i >= 0; i-- {
		d := endDate.AddDate(0, 0, -i)
		key := d.Format(domain.DateLayout)
		week.Days = append(week.Days, DayTotal{
			Date:     key,
			Day:      d.Format("Mon"),
			Calories: totals[key],
		})
		week.Total += totals[key]
	}
	week.Average = week.Total / 7

	return week, nil
}

// Calendar builds the month grid for year and month (1-12)
func (s *SummaryService) Calendar(year, month int) (CalendarMonth, error) {
	if month < 1 || month > 12 || year < 1 {
		return CalendarMonth{}, fmt.Errorf("%w: invalid year or month", domain.ErrInvalidRequest)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	daysInPrevMonth := first.AddDate(0, 0, -1).Day()
	offset := int(first.Weekday())
	totalCells := (offset + daysInMonth + 6) / 7 * 7

	totals := s.caloriesByDate()

	cal := CalendarMonth{Year: year, Month: month, Days: make([]CalendarDay, 0, totalCells)}
	for i := 0; i < totalCells; i++ {
		dayNumber := i - offset + 1
		switch {
		case dayNumber <= 0:
			cal.Days = append(cal.Days, CalendarDay{Day: dayNumber + daysInPrevMonth})
		case dayNumber > daysInMonth:
			cal.Days = append(cal.Days, CalendarDay{Day: dayNumber - daysInMonth})
		default:
			key := fmt.Sprintf("%04d-%02d-%02d", year, month, dayNumber)
			calories, hasData := totals[key]
			cal.Days = append(cal.Days, CalendarDay{
				Day:            dayNumber,
				IsCurrentMonth: true,
				HasData:        hasData,
				DateKey:        key,
				Calories:       calories,
			})
		}
	}

	return cal, nil
}

// caloriesByDate totals calories per date over every stored meal
func (s *SummaryService) caloriesByDate() map[string]int {
	totals := make(map[string]int)
	for _, m := range s.meals.List() {
		totals[m.Date] += m.Calories
	}
	return totals
}
