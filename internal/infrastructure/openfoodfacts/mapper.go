package openfoodfacts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/aimeal/backend/internal/domain"
	"github.com/google/uuid"
)

// Nutriment keys, all expressed per 100 g
const (
	nutrimentEnergyKcal = "energy-kcal_100g"
	nutrimentProteins   = "proteins_100g"
	nutrimentCarbs      = "carbohydrates_100g"
	nutrimentFat        = "fat_100g"
	nutrimentFiber      = "fiber_100g"
)

const unknownFoodName = "Unknown Food"

// searchResponse is the payload of GET /search
type searchResponse struct {
	Products []product `json:"products"`
	Count    flexFloat `json:"count"`
}

// productResponse is the payload of GET /product/{code}.json
type productResponse struct {
	Status  int      `json:"status"`
	Product *product `json:"product"`
}

type product struct {
	ID          string               `json:"_id"`
	Code        string               `json:"code"`
	ProductName string               `json:"product_name"`
	Brands      string               `json:"brands"`
	Nutriments  map[string]flexFloat `json:"nutriments"`
	ServingSize string               `json:"serving_size"`
	ImageURL    string               `json:"image_url"`
}

// flexFloat accepts numbers, numeric strings, empty strings and null.
// The database is inconsistent about which one it sends.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexFloat{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*f = flexFloat{}
			return nil
		}
		*f = flexFloat{Value: v, Valid: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}

// mapToFoodItem converts a product record to our domain FoodItem.
// Missing nutrients become zero and negative values are clamped.
func mapToFoodItem(p product) domain.FoodItem {
	id := p.ID
	if id == "" {
		id = p.Code
	}
	if id == "" {
		id = uuid.NewString()
	}

	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = unknownFoodName
	}

	item := domain.FoodItem{
		ID:          id,
		Name:        name,
		Brand:       p.Brands,
		Calories:    nutriment(p.Nutriments, nutrimentEnergyKcal),
		Protein:     nutriment(p.Nutriments, nutrimentProteins),
		Carbs:       nutriment(p.Nutriments, nutrimentCarbs),
		Fat:         nutriment(p.Nutriments, nutrimentFat),
		ServingSize: p.ServingSize,
		ImageURL:    p.ImageURL,
		Barcode:     p.Code,
	}
	if fiber, ok := p.Nutriments[nutrimentFiber]; ok && fiber.Valid {
		item.Fiber = domain.Float64(max(fiber.Value, 0))
	}

	return item
}

// nutriment finds a nutrient value by key, defaulting to zero
func nutriment(values map[string]flexFloat, key string) float64 {
	v, ok := values[key]
	if !ok || !v.Valid {
		return 0
	}
	return max(v.Value, 0)
}
