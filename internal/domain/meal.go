package domain

import (
	"fmt"
	"math"
)

// DateLayout is the calendar date format stored on meals
const DateLayout = "2006-01-02"

// TimeLabelLayout is the human time label format stored on meals
const TimeLabelLayout = "3:04 PM"

// Meal is a named, dated collection of foods with aggregate calories
type Meal struct {
	ID          string     `json:"id"`
	Time        string     `json:"time"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Calories    int        `json:"calories"`
	Foods       []FoodItem `json:"foods"`
	Date        string     `json:"date"`
}

// MealPatch holds the fields that can replace a stored meal's values.
// Nil fields are left untouched. The date is not patchable.
type MealPatch struct {
	Title       *string    `json:"title,omitempty"`
	Time        *string    `json:"time,omitempty"`
	Description *string    `json:"description,omitempty"`
	Foods       []FoodItem `json:"foods,omitempty"`
}

// MealDraft is a meal as submitted by a client, before the editor assigns
// its time label, date and derived fields
type MealDraft struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	Time        string     `json:"time,omitempty"`
	Date        string     `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Foods       []FoodItem `json:"foods" validate:"required,min=1,dive"`
}

// Macros holds aggregate macronutrient totals in grams
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// TotalCalories returns the rounded sum of effective calories
func TotalCalories(foods []FoodItem) int {
	var sum float64
	for _, f := range foods {
		sum += f.EffectiveCalories()
	}
	return int(math.Round(sum))
}

// TotalMacros sums macros over foods, scaled by quantity
func TotalMacros(foods []FoodItem) Macros {
	var m Macros
	for _, f := range foods {
		q := f.EffectiveQuantity()
		m.Protein += f.Protein * q
		m.Carbs += f.Carbs * q
		m.Fat += f.Fat * q
		if f.Fiber != nil {
			m.Fiber += *f.Fiber * q
		}
	}
	return m
}

// Describe builds the human-readable summary of a food list
func Describe(foods []FoodItem) string {
	switch len(foods) {
	case 0:
		return ""
	case 1:
		return foods[0].Name
	case 2:
		return fmt.Sprintf("%s and %s", foods[0].Name, foods[1].Name)
	default:
		return fmt.Sprintf("%s, %s, and %d more", foods[0].Name, foods[1].Name, len(foods)-2)
	}
}

// Recalculate restores the calorie invariant from the food list
func (m *Meal) Recalculate() {
	m.Calories = TotalCalories(m.Foods)
}

// Apply merges a patch into the meal. Replacing foods recalculates calories
// and, unless the patch also carries one, the description.
func (m *Meal) Apply(p MealPatch) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Time != nil {
		m.Time = *p.Time
	}
	if p.Foods != nil {
		m.Foods = p.Foods
		m.Recalculate()
		m.Description = Describe(m.Foods)
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
}

// Clone returns a deep copy so callers cannot mutate stored state
func (m Meal) Clone() Meal {
	foods := make([]FoodItem, len(m.Foods))
	for i, f := range m.Foods {
		if f.Fiber != nil {
			f.Fiber = Float64(*f.Fiber)
		}
		foods[i] = f
	}
	m.Foods = foods
	return m
}
