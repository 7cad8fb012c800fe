package domain

// FoodItem is a nutrition record usable as a meal constituent.
// Nutrient values are per stated serving and never negative.
type FoodItem struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Brand       string   `json:"brand,omitempty"`
	Calories    float64  `json:"calories" validate:"gte=0"`
	Protein     float64  `json:"protein" validate:"gte=0"`
	Carbs       float64  `json:"carbs" validate:"gte=0"`
	Fat         float64  `json:"fat" validate:"gte=0"`
	Fiber       *float64 `json:"fiber,omitempty" validate:"omitempty,gte=0"`
	ServingSize string   `json:"serving_size,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
	Quantity    float64  `json:"quantity,omitempty" validate:"gte=0"`
	Confidence  float64  `json:"confidence,omitempty"` // set by photo recognition only
}

// EffectiveQuantity returns the quantity multiplier, defaulting to 1 when absent
func (f FoodItem) EffectiveQuantity() float64 {
	if f.Quantity <= 0 {
		return 1
	}
	return f.Quantity
}

// EffectiveCalories returns calories scaled by the quantity multiplier
func (f FoodItem) EffectiveCalories() float64 {
	return f.Calories * f.EffectiveQuantity()
}

// SearchResult is the response shape of a catalog search
type SearchResult struct {
	Items  []FoodItem `json:"items"`
	Total  int        `json:"total"`
	Source string     `json:"source"` // "remote", "cache" or "local"
}

// Search result sources
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
	SourceLocal  = "local"
)

// Float64 returns a pointer to v, for optional nutrient fields
func Float64(v float64) *float64 {
	return &v
}
