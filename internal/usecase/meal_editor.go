package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Quantity steps offered by the editor
const (
	QuantityStep = 0.25
	MinQuantity  = 0.25
)

// MealEditor turns client drafts into meals ready for the store
type MealEditor struct {
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
}

// NewMealEditor creates an editor. A nil loc means time.Local.
func NewMealEditor(validate *validator.Validate, loc *time.Location, now func() time.Time) *MealEditor {
	if validate == nil {
		validate = validator.New()
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &MealEditor{validate: validate, loc: loc, now: now}
}

// BuildMeal validates a draft and fills in the derived fields.
// The time label and date default to now; the description defaults to the food summary.
func (e *MealEditor) BuildMeal(draft domain.MealDraft) (domain.Meal, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return domain.Meal{}, fmt.Errorf("%w: please enter a meal title", domain.ErrInvalidRequest)
	}
	if err := e.validateStruct(draft); err != nil {
		return domain.Meal{}, err
	}
	if err := validateQuantities(draft.Foods); err != nil {
		return domain.Meal{}, err
	}

	now := e.now().In(e.loc)

	meal := domain.Meal{
		Title:       draft.Title,
		Time:        draft.Time,
		Description: draft.Description,
		Foods:       cloneFoods(draft.Foods),
		Date:        draft.Date,
	}
	if meal.Time == "" {
		meal.Time = now.Format(domain.TimeLabelLayout)
	}
	if meal.Date == "" {
		meal.Date = now.Format(domain.DateLayout)
	}
	if meal.Description == "" {
		meal.Description = domain.Describe(meal.Foods)
	}
	meal.Recalculate()

	return meal, nil
}

// ValidatePatch checks the fields a patch would replace
func (e *MealEditor) ValidatePatch(patch domain.MealPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("%w: please enter a meal title", domain.ErrInvalidRequest)
	}
	if patch.Foods != nil {
		if len(patch.Foods) == 0 {
			return fmt.Errorf("%w: a meal needs at least one food", domain.ErrInvalidRequest)
		}
		for _, f := range patch.Foods {
			if err := e.validateStruct(f); err != nil {
				return err
			}
		}
		if err := validateQuantities(patch.Foods); err != nil {
			return err
		}
	}
	return nil
}

// AdjustQuantity changes a food's quantity by delta, never going below MinQuantity
func AdjustQuantity(food domain.FoodItem, delta float64) domain.FoodItem {
	food.Quantity = max(MinQuantity, food.EffectiveQuantity()+delta)
	return food
}

// AdjustFood builds the patch that changes the quantity of one food of meal by delta
func (e *MealEditor) AdjustFood(meal domain.Meal, foodID string, delta float64) (domain.MealPatch, error) {
	if delta == 0 {
		return domain.MealPatch{}, fmt.Errorf("%w: quantity delta must not be zero", domain.ErrInvalidRequest)
	}

	foods := cloneFoods(meal.Foods)
	for i := range foods {
		if foods[i].ID == foodID {
			foods[i] = AdjustQuantity(foods[i], delta)
			return domain.MealPatch{Foods: foods}, nil
		}
	}
	return domain.MealPatch{}, fmt.Errorf("%w: meal has no food %q", domain.ErrInvalidRequest, foodID)
}

func (e *MealEditor) validateStruct(v any) error {
	if err := e.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// validateQuantities rejects quantities below the smallest step.
// Zero means absent and counts as one.
func validateQuantities(foods []domain.FoodItem) error {
	for _, f := range foods {
		if f.Quantity != 0 && f.Quantity < MinQuantity {
			return fmt.Errorf("%w: quantity of %q must be at least %.2f", domain.ErrInvalidRequest, f.Name, MinQuantity)
		}
	}
	return nil
}

// validationError flattens validator output into a single request error
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.Join(msgs, "; "))
}
