package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalCalories(t *testing.T) {
	tests := []struct {
		name  string
		foods []FoodItem
		want  int
	}{
		{"empty", nil, 0},
		{"quantity absent defaults to one", []FoodItem{{Calories: 350}, {Calories: 100}}, 450},
		{"quantity scales calories", []FoodItem{{Calories: 52, Quantity: 2.5}}, 130},
		{"rounds the sum not each item", []FoodItem{{Calories: 0.4}, {Calories: 0.4}}, 1},
		{"quarter portions", []FoodItem{{Calories: 165, Quantity: 0.25}, {Calories: 89, Quantity: 1.75}}, 197},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalCalories(tt.foods))
		})
	}
}

func TestDescribe(t *testing.T) {
	a := FoodItem{Name: "Apple"}
	b := FoodItem{Name: "Banana"}
	c := FoodItem{Name: "Oatmeal"}
	d := FoodItem{Name: "Avocado"}

	assert.Equal(t, "", Describe(nil))
	assert.Equal(t, "Apple", Describe([]FoodItem{a}))
	assert.Equal(t, "Apple and Banana", Describe([]FoodItem{a, b}))
	assert.Equal(t, "Apple, Banana, and 1 more", Describe([]FoodItem{a, b, c}))
	assert.Equal(t, "Apple, Banana, and 2 more", Describe([]FoodItem{a, b, c, d}))
}

func TestTotalMacros(t *testing.T) {
	foods := []FoodItem{
		{Protein: 31, Carbs: 0, Fat: 3.6, Quantity: 2},
		{Protein: 1.1, Carbs: 22.8, Fat: 0.3, Fiber: Float64(2.6)},
	}

	m := TotalMacros(foods)

	assert.InDelta(t, 63.1, m.Protein, 1e-9)
	assert.InDelta(t, 22.8, m.Carbs, 1e-9)
	assert.InDelta(t, 7.5, m.Fat, 1e-9)
	assert.InDelta(t, 2.6, m.Fiber, 1e-9)
}

func TestMealApply(t *testing.T) {
	base := func() Meal {
		m := Meal{
			ID:          "1",
			Title:       "Lunch",
			Time:        "12:15 PM",
			Description: "Grilled chicken salad and Avocado",
			Foods:       []FoodItem{{Name: "Grilled chicken salad", Calories: 350}, {Name: "Avocado", Calories: 100}},
			Date:        "2026-10-18",
		}
		m.Recalculate()
		return m
	}

	t.Run("title only leaves foods alone", func(t *testing.T) {
		m := base()
		title := "Late lunch"
		m.Apply(MealPatch{Title: &title})

		assert.Equal(t, "Late lunch", m.Title)
		assert.Equal(t, 450, m.Calories)
		assert.Equal(t, "2026-10-18", m.Date)
	})

	t.Run("foods recompute calories and description", func(t *testing.T) {
		m := base()
		m.Apply(MealPatch{Foods: []FoodItem{{Name: "Apple", Calories: 52, Quantity: 2}}})

		assert.Equal(t, 104, m.Calories)
		assert.Equal(t, "Apple", m.Description)
	})

	t.Run("explicit description wins", func(t *testing.T) {
		m := base()
		desc := "Just fruit"
		m.Apply(MealPatch{Foods: []FoodItem{{Name: "Apple", Calories: 52}}, Description: &desc})

		assert.Equal(t, "Just fruit", m.Description)
	})
}

func TestMealClone(t *testing.T) {
	m := Meal{Foods: []FoodItem{{Name: "Apple", Fiber: Float64(2.4)}}}
	c := m.Clone()

	c.Foods[0].Name = "Pear"
	*c.Foods[0].Fiber = 9

	assert.Equal(t, "Apple", m.Foods[0].Name)
	assert.Equal(t, 2.4, *m.Foods[0].Fiber)
}

func TestFoodItemEffectiveQuantity(t *testing.T) {
	assert.Equal(t, 1.0, FoodItem{}.EffectiveQuantity())
	assert.Equal(t, 0.25, FoodItem{Quantity: 0.25}.EffectiveQuantity())
	assert.Equal(t, 330.0, FoodItem{Calories: 165, Quantity: 2}.EffectiveCalories())
}
