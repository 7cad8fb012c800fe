package usecase

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/aimeal/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// ModelInputSize is the square edge images are resized to before classification
const ModelInputSize = 224

// topK is how many class scores are mapped onto the catalog
const topK = 3

// FoodClasses is the vocabulary the classifier scores against
var FoodClasses = []string{
	"apple", "banana", "bread", "broccoli", "burger", "cake", "carrot",
	"cheese", "chicken", "coffee", "egg", "fish", "fries", "grapes",
	"hotdog", "ice cream", "milk", "orange", "pasta", "pizza", "rice",
	"salad", "sandwich", "steak", "sushi", "tomato", "water",
}

// PortionSize is a coarse serving estimate
type PortionSize string

const (
	PortionSmall  PortionSize = "small"
	PortionMedium PortionSize = "medium"
	PortionLarge  PortionSize = "large"
)

// ClassifierSource yields the image classifier and whether it is the real one
type ClassifierSource interface {
	Get() (domain.ImageClassifier, bool)
}

// FoodRecognizer maps photos onto catalog foods
type FoodRecognizer struct {
	classifiers ClassifierSource
	logger      zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	inputs sync.Pool
}

// NewFoodRecognizer creates a recognizer. A nil rng uses a randomly seeded source.
func NewFoodRecognizer(classifiers ClassifierSource, rng *rand.Rand) *FoodRecognizer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &FoodRecognizer{
		classifiers: classifiers,
		logger:      log.With().Str("component", "food_recognition").Logger(),
		rng:         rng,
		inputs: sync.Pool{
			New: func() any {
				return image.NewRGBA(image.Rect(0, 0, ModelInputSize, ModelInputSize))
			},
		},
	}
}

// Recognize returns the catalog foods detected in img, each with a confidence.
// Without a working classifier it returns 1 to 3 random catalog foods instead.
func (r *FoodRecognizer) Recognize(ctx context.Context, img image.Image) []domain.FoodItem {
	classifier, available := r.classifiers.Get()
	if !available || classifier == nil || img == nil {
		return r.fallback()
	}

	input := r.inputs.Get().(*image.RGBA)
	defer r.inputs.Put(input)
	draw.BiLinear.Scale(input, input.Bounds(), img, img.Bounds(), draw.Src, nil)

	scores, err := classifier.Classify(ctx, input)
	if err != nil {
		r.logger.Warn().Err(err).Msg("classification failed, using fallback")
		return r.fallback()
	}

	return mapScoresToFoods(topScores(scores, topK))
}

// fallback picks 1 to 3 distinct catalog foods at random
func (r *FoodRecognizer) fallback() []domain.FoodItem {
	foods := CommonFoods()

	r.rngMu.Lock()
	r.rng.Shuffle(len(foods), func(i, j int) { foods[i], foods[j] = foods[j], foods[i] })
	n := r.rng.IntN(3) + 1
	r.rngMu.Unlock()

	return foods[:min(n, len(foods))]
}

// topScores returns the k highest positive scores. Selection uses strict
// greater-than so among equal scores the earliest class wins.
func topScores(scores []domain.ClassScore, k int) []domain.ClassScore {
	used := make([]bool, len(scores))
	out := make([]domain.ClassScore, 0, k)

	for len(out) < k {
		best := -1
		for i, s := range scores {
			if used[i] || s.Probability <= 0 {
				continue
			}
			if best < 0 || s.Probability > scores[best].Probability {
				best = i
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		out = append(out, scores[best])
	}
	return out
}

// mapScoresToFoods maps each class onto the first catalog food whose name
// contains it. Classes without a match are dropped.
func mapScoresToFoods(scores []domain.ClassScore) []domain.FoodItem {
	catalog := CommonFoods()
	out := []domain.FoodItem{}

	for _, s := range scores {
		class := strings.ToLower(s.ClassName)
		if class == "" {
			continue
		}
		for _, food := range catalog {
			if strings.Contains(strings.ToLower(food.Name), class) {
				food.Confidence = s.Probability
				out = append(out, food)
				break
			}
		}
	}
	return out
}

// EstimatePortionSize classifies a detection by the share of the image its box covers
func EstimatePortionSize(imageWidth, imageHeight int, box domain.BoundingBox) (PortionSize, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return "", fmt.Errorf("%w: image dimensions must be positive", domain.ErrInvalidRequest)
	}
	if box.Width < 0 || box.Height < 0 {
		return "", fmt.Errorf("%w: bounding box dimensions must not be negative", domain.ErrInvalidRequest)
	}

	ratio := (box.Width * box.Height) / float64(imageWidth*imageHeight)
	switch {
	case ratio < 0.2:
		return PortionSmall, nil
	case ratio < 0.5:
		return PortionMedium, nil
	default:
		return PortionLarge, nil
	}
}
