package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMealsKey is the blob key holding the meal list
const DefaultMealsKey = "aimeal-meals"

// Status messages surfaced through StoreStatus.Error
const (
	errMsgLoad = "Failed to load meal data"
	errMsgSave = "Failed to save meal data"
)

// MealStoreConfig holds configuration for the meal store
type MealStoreConfig struct {
	Key      string
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

// StoreStatus reports the store's load state and last persistence error
type StoreStatus struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// MealStore keeps logged meals in memory, most recent first, and writes the
// whole list through to a blob store after every mutation
type MealStore struct {
	blobs  domain.BlobStore
	key    string
	loc    *time.Location
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger

	mu     sync.RWMutex
	meals  []domain.Meal
	status StoreStatus
}

// NewMealStore creates a store that reports Loading until Initialize runs
func NewMealStore(blobs domain.BlobStore, config MealStoreConfig) *MealStore {
	key := config.Key
	if key == "" {
		key = DefaultMealsKey
	}

	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	newID := config.NewID
	if newID == nil {
		newID = newMealID
	}

	return &MealStore{
		blobs:  blobs,
		key:    key,
		loc:    loc,
		now:    now,
		newID:  newID,
		logger: log.With().Str("component", "meal_store").Logger(),
		meals:  []domain.Meal{},
		status: StoreStatus{Loading: true},
	}
}

// newMealID returns a time-ordered unique id
func newMealID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Initialize loads the persisted list. A store that was never written is
// seeded with sample meals. Any other failure leaves the list empty and sets
// the error flag.
func (s *MealStore) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.status.Loading = false }()

	s.status.Error = ""

	data, err := s.blobs.Load(ctx, s.key)
	if errors.Is(err, domain.ErrBlobNotFound) {
		s.meals = sampleMeals(s.today())
		s.logger.Info().Int("meals", len(s.meals)).Msg("seeded sample meals")
		s.persist(ctx)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("error loading meals")
		s.meals = []domain.Meal{}
		s.status.Error = errMsgLoad
		return
	}

	var meals []domain.Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("error parsing stored meals")
		s.meals = []domain.Meal{}
		s.status.Error = errMsgLoad
		return
	}
	if meals == nil {
		meals = []domain.Meal{}
	}

	s.meals = meals
	s.logger.Info().Int("meals", len(meals)).Msg("loaded meals")
}

// Add stores a new meal at the front of the list and returns it with its id
func (s *MealStore) Add(ctx context.Context, meal domain.Meal) domain.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()

	meal = meal.Clone()
	meal.ID = s.newID()
	meal.Recalculate()
	if meal.Date == "" {
		meal.Date = s.today()
	}

	s.meals = append([]domain.Meal{meal}, s.meals...)
	s.persist(ctx)

	return meal.Clone()
}

// Update merges patch into the meal with id. It reports false when no meal matches.
func (s *MealStore) Update(ctx context.Context, id string, patch domain.MealPatch) (domain.Meal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Meal{}, false
	}

	if patch.Foods != nil {
		patch.Foods = cloneFoods(patch.Foods)
	}
	s.meals[i].Apply(patch)
	s.persist(ctx)

	return s.meals[i].Clone(), true
}

// Remove deletes the meal with id. It reports false when no meal matches.
func (s *MealStore) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}

	s.meals = append(s.meals[:i:i], s.meals[i+1:]...)
	s.persist(ctx)
	return true
}

// List returns all meals, most recent first
func (s *MealStore) List() []domain.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Meal, len(s.meals))
	for i, m := range s.meals {
		out[i] = m.Clone()
	}
	return out
}

// Get returns the meal with id
func (s *MealStore) Get(id string) (domain.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Meal{}, domain.ErrMealNotFound
	}
	return s.meals[i].Clone(), nil
}

// ByDate returns the meals logged on date (YYYY-MM-DD), in list order
func (s *MealStore) ByDate(date string) []domain.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Meal{}
	for _, m := range s.meals {
		if m.Date == date {
			out = append(out, m.Clone())
		}
	}
	return out
}

// TotalCaloriesToday sums calories of meals dated today in the store's zone
func (s *MealStore) TotalCaloriesToday() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	total := 0
	for _, m := range s.meals {
		if m.Date == today {
			total += m.Calories
		}
	}
	return total
}

// Today returns the current calendar date in the store's zone
func (s *MealStore) Today() string {
	return s.today()
}

// Status returns the load state and last error
func (s *MealStore) Status() StoreStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *MealStore) today() string {
	return s.now().In(s.loc).Format(domain.DateLayout)
}

func (s *MealStore) indexOf(id string) int {
	for i, m := range s.meals {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole list. Callers hold the write lock.
// A failure sets the error flag; the in-memory list is kept.
func (s *MealStore) persist(ctx context.Context) {
	data, err := json.Marshal(s.meals)
	if err == nil {
		err = s.blobs.Save(ctx, s.key, data)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("error saving meals")
		s.status.Error = errMsgSave
		return
	}
	if s.status.Error == errMsgSave {
		s.status.Error = ""
	}
}

// sampleMeals is the first-run data set, dated today
func sampleMeals(date string) []domain.Meal {
	meals := []domain.Meal{
		{
			ID:          "1",
			Time:        "8:30 AM",
			Title:       "Breakfast",
			Description: "Oatmeal with berries and honey",
			Foods: []domain.FoodItem{
				{
					ID:          "oatmeal-1",
					Name:        "Oatmeal with berries",
					Calories:    320,
					Protein:     8,
					Carbs:       54,
					Fat:         6,
					ServingSize: "1 bowl (250g)",
				},
			},
			Date: date,
		},
		{
			ID:          "2",
			Time:        "12:15 PM",
			Title:       "Lunch",
			Description: "Grilled chicken salad with avocado",
			Foods: []domain.FoodItem{
				{
					ID:          "chicken-salad-1",
					Name:        "Grilled chicken salad",
					Calories:    350,
					Protein:     30,
					Carbs:       10,
					Fat:         20,
					ServingSize: "1 plate (300g)",
				},
				{
					ID:          "avocado-1",
					Name:        "Avocado",
					Calories:    100,
					Protein:     1,
					Carbs:       5,
					Fat:         10,
					ServingSize: "1/2 medium (70g)",
				},
			},
			Date: date,
		},
	}

	for i := range meals {
		meals[i].Recalculate()
	}
	return meals
}
