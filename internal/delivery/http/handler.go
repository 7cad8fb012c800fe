package http

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/aimeal/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// maxImageBytes caps uploaded images and websocket frames
	maxImageBytes = 10 << 20
	// maxImagePixels caps the decoded size an image header may declare
	maxImagePixels = 40_000_000
)

// CapabilityReporter describes an optional capability for health reports
type CapabilityReporter interface {
	Name() string
	Available() bool
	Err() error
}

// Dependencies are the services the HTTP layer serves. Nil services make
// their endpoints answer 503.
type Dependencies struct {
	Catalog    *usecase.CatalogService
	Meals      *usecase.MealStore
	Editor     *usecase.MealEditor
	Summary    *usecase.SummaryService
	Recognizer *usecase.FoodRecognizer
	Decoders   usecase.DecoderSource

	// Capabilities are listed by the health check
	Capabilities []CapabilityReporter

	ScanFallbackDelay time.Duration
	SearchDebounce    time.Duration
	AllowedOrigins    []string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog    *usecase.CatalogService
	meals      *usecase.MealStore
	editor     *usecase.MealEditor
	summary    *usecase.SummaryService
	recognizer *usecase.FoodRecognizer
	decoders   usecase.DecoderSource
	still      *usecase.BarcodeScanner

	capabilities   []CapabilityReporter
	fallbackDelay  time.Duration
	debounce       time.Duration
	allowedOrigins []string
	logger         zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		catalog:        deps.Catalog,
		meals:          deps.Meals,
		editor:         deps.Editor,
		summary:        deps.Summary,
		recognizer:     deps.Recognizer,
		decoders:       deps.Decoders,
		capabilities:   deps.Capabilities,
		fallbackDelay:  deps.ScanFallbackDelay,
		debounce:       deps.SearchDebounce,
		allowedOrigins: deps.AllowedOrigins,
		logger:         log.With().Str("component", "http").Logger(),
	}
	if h.decoders != nil {
		h.still = usecase.NewBarcodeScanner(h.decoders, h.fallbackDelay)
	}
	return h
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	capabilities := gin.H{}
	for _, cp := range h.capabilities {
		status := gin.H{"available": cp.Available()}
		if err := cp.Err(); err != nil {
			status["error"] = err.Error()
		}
		capabilities[cp.Name()] = status
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "aimeal-backend",
		"version":      "1.0.0",
		"capabilities": capabilities,
	})
}

// SearchFoods handles catalog search requests
func (h *Handler) SearchFoods(c *gin.Context) {
	if !h.ready(c, h.catalog != nil, "catalog") {
		return
	}

	result := h.catalog.SearchByName(c.Request.Context(), c.Query("query"))
	c.JSON(http.StatusOK, result)
}

// GetFoodByBarcode returns the remote product for a barcode
func (h *Handler) GetFoodByBarcode(c *gin.Context) {
	if !h.ready(c, h.catalog != nil, "catalog") {
		return
	}

	item := h.catalog.GetByBarcode(c.Request.Context(), c.Param("code"))
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No product found for this barcode"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// ScanBarcode decodes an uploaded still image and resolves the code to a food
func (h *Handler) ScanBarcode(c *gin.Context) {
	if !h.ready(c, h.catalog != nil && h.still != nil, "barcode scanning") {
		return
	}

	img, ok := h.formImage(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	code, decoded := h.still.DecodeImage(ctx, img)
	food := h.catalog.ResolveBarcode(ctx, code)

	c.JSON(http.StatusOK, gin.H{
		"barcode": code,
		"decoded": decoded,
		"food":    food,
	})
}

// recognizeForm is the optional detection box of a recognition upload
type recognizeForm struct {
	BoxX      *float64 `form:"box_x"`
	BoxY      *float64 `form:"box_y"`
	BoxWidth  *float64 `form:"box_width" binding:"omitempty,gte=0"`
	BoxHeight *float64 `form:"box_height" binding:"omitempty,gte=0"`
}

// RecognizeFoods detects foods in an uploaded photo
func (h *Handler) RecognizeFoods(c *gin.Context) {
	if !h.ready(c, h.recognizer != nil, "food recognition") {
		return
	}

	var form recognizeForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bounding box: " + err.Error()})
		return
	}

	img, ok := h.formImage(c)
	if !ok {
		return
	}

	foods := h.recognizer.Recognize(c.Request.Context(), img)
	response := gin.H{"foods": foods}

	if form.BoxWidth != nil && form.BoxHeight != nil {
		box := domain.BoundingBox{Width: *form.BoxWidth, Height: *form.BoxHeight}
		if form.BoxX != nil {
			box.X = *form.BoxX
		}
		if form.BoxY != nil {
			box.Y = *form.BoxY
		}
		bounds := img.Bounds()
		portion, err := usecase.EstimatePortionSize(bounds.Dx(), bounds.Dy(), box)
		if err != nil {
			h.respondError(c, err)
			return
		}
		response["portionSize"] = portion
	}

	c.JSON(http.StatusOK, response)
}

// ListMeals returns every logged meal, most recent first
func (h *Handler) ListMeals(c *gin.Context) {
	if !h.ready(c, h.meals != nil, "meal store") {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meals":  h.meals.List(),
		"status": h.meals.Status(),
	})
}

// GetMeal returns one meal
func (h *Handler) GetMeal(c *gin.Context) {
	if !h.ready(c, h.meals != nil, "meal store") {
		return
	}

	meal, err := h.meals.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// CreateMeal builds a meal from a draft and logs it
func (h *Handler) CreateMeal(c *gin.Context) {
	if !h.ready(c, h.meals != nil && h.editor != nil, "meal store") {
		return
	}

	var draft domain.MealDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	meal, err := h.editor.BuildMeal(draft)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.meals.Add(c.Request.Context(), meal))
}

// UpdateMeal patches a logged meal
func (h *Handler) UpdateMeal(c *gin.Context) {
	if !h.ready(c, h.meals != nil && h.editor != nil, "meal store") {
		return
	}

	var patch domain.MealPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.editor.ValidatePatch(patch); err != nil {
		h.respondError(c, err)
		return
	}

	meal, ok := h.meals.Update(c.Request.Context(), c.Param("id"), patch)
	if !ok {
		h.respondError(c, domain.ErrMealNotFound)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// quantityAdjustment steps the quantity of one food in a meal
type quantityAdjustment struct {
	Delta float64 `json:"quantity_delta" binding:"required"`
}

// AdjustMealFood changes the quantity of one food in a logged meal
func (h *Handler) AdjustMealFood(c *gin.Context) {
	if !h.ready(c, h.meals != nil && h.editor != nil, "meal store") {
		return
	}

	var req quantityAdjustment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	meal, err := h.meals.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	patch, err := h.editor.AdjustFood(meal, c.Param("foodId"), req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}

	updated, ok := h.meals.Update(c.Request.Context(), meal.ID, patch)
	if !ok {
		h.respondError(c, domain.ErrMealNotFound)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMeal removes a logged meal
func (h *Handler) DeleteMeal(c *gin.Context) {
	if !h.ready(c, h.meals != nil, "meal store") {
		return
	}

	if !h.meals.Remove(c.Request.Context(), c.Param("id")) {
		h.respondError(c, domain.ErrMealNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// TodayMeals returns today's meals and their calorie total
func (h *Handler) TodayMeals(c *gin.Context) {
	if !h.ready(c, h.meals != nil, "meal store") {
		return
	}

	today := h.meals.Today()
	c.JSON(http.StatusOK, gin.H{
		"date":          today,
		"meals":         h.meals.ByDate(today),
		"totalCalories": h.meals.TotalCaloriesToday(),
	})
}

// DaySummary returns calorie and macro totals for a day
func (h *Handler) DaySummary(c *gin.Context) {
	if !h.ready(c, h.summary != nil, "summary") {
		return
	}

	summary, err := h.summary.Day(c.Query("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// WeekSummary returns seven daily calorie totals
func (h *Handler) WeekSummary(c *gin.Context) {
	if !h.ready(c, h.summary != nil, "summary") {
		return
	}

	summary, err := h.summary.Week(c.Query("end"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Calendar returns a month grid marking days with logged meals
func (h *Handler) Calendar(c *gin.Context) {
	if !h.ready(c, h.summary != nil, "summary") {
		return
	}

	year, errYear := strconv.Atoi(c.Param("year"))
	month, errMonth := strconv.Atoi(c.Param("month"))
	if errYear != nil || errMonth != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year and month must be numbers"})
		return
	}

	grid, err := h.summary.Calendar(year, month)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// ready answers 503 when a service is not configured
func (h *Handler) ready(c *gin.Context, ok bool, name string) bool {
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": name + " not configured"})
	}
	return ok
}

// formImage reads and decodes the "image" multipart field
func (h *Handler) formImage(c *gin.Context) (image.Image, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required"})
		return nil, false
	}

	img, err := openImage(header)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return img, true
}

func openImage(header *multipart.FileHeader) (image.Image, error) {
	if header.Size > maxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, maxImageBytes)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	defer f.Close()

	return decodeImage(f)
}

// decodeImage decodes a JPEG or PNG payload. The header is checked
// against maxImagePixels before any pixel buffer is allocated.
func decodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, maxImageBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", domain.ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: image of %dx%d exceeds %d pixels", domain.ErrInvalidImage, cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	return img, nil
}

// respondError maps domain errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMealNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Meal not found"})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, domain.ErrCatalogAPIFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Food database temporarily unavailable"})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
