package usecase

import "github.com/aimeal/backend/internal/domain"

// commonFoods is the static catalog served when the remote database
// cannot answer, and the pool photo recognition picks from
var commonFoods = []domain.FoodItem{
	{
		ID:          "1",
		Name:        "Apple",
		Calories:    52,
		Protein:     0.3,
		Carbs:       14,
		Fat:         0.2,
		Fiber:       domain.Float64(2.4),
		ServingSize: "1 medium (182g)",
		ImageURL:    "https://images.unsplash.com/photo-1570913149827-d2ac84ab3f9a?w=320",
	},
	{
		ID:          "2",
		Name:        "Banana",
		Calories:    89,
		Protein:     1.1,
		Carbs:       22.8,
		Fat:         0.3,
		Fiber:       domain.Float64(2.6),
		ServingSize: "1 medium (118g)",
		ImageURL:    "https://images.unsplash.com/photo-1571771894821-ce9b6c11b08e?w=320",
	},
	{
		ID:          "3",
		Name:        "Chicken Breast",
		Calories:    165,
		Protein:     31,
		Carbs:       0,
		Fat:         3.6,
		ServingSize: "100g",
		ImageURL:    "https://images.unsplash.com/photo-1604503468506-a8da13d82791?w=320",
	},
	{
		ID:          "4",
		Name:        "Oatmeal",
		Calories:    68,
		Protein:     2.5,
		Carbs:       12,
		Fat:         1.4,
		Fiber:       domain.Float64(1.7),
		ServingSize: "100g cooked",
		ImageURL:    "https://images.unsplash.com/photo-1614961233913-a5113a4a34ed?w=320",
	},
	{
		ID:          "5",
		Name:        "Avocado",
		Calories:    160,
		Protein:     2,
		Carbs:       8.5,
		Fat:         14.7,
		Fiber:       domain.Float64(6.7),
		ServingSize: "1/2 medium (68g)",
		ImageURL:    "https://images.unsplash.com/photo-1601039641847-7857b994d704?w=320",
	},
}

// CommonFoods returns a deep copy of the static catalog, in catalog order
func CommonFoods() []domain.FoodItem {
	return cloneFoods(commonFoods)
}

func cloneFoods(foods []domain.FoodItem) []domain.FoodItem {
	out := make([]domain.FoodItem, len(foods))
	for i, f := range foods {
		if f.Fiber != nil {
			f.Fiber = domain.Float64(*f.Fiber)
		}
		out[i] = f
	}
	return out
}
