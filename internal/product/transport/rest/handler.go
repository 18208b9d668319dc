// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	producterrors "github.com/abgdnv/productsapi/internal/product/errors"
	"github.com/abgdnv/productsapi/internal/product/service"
	"github.com/abgdnv/productsapi/pkg/web"
	"github.com/go-chi/chi/v5"
)

// Greeting is served as plain text on the root path.
const Greeting = "Hello World! this is a test"

type Handler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewHandler creates a new product Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Patch("/", h.Rename)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/", h.Home)
	r.Get("/healthz", h.HealthCheck)
}

// FindAll retrieves a list of all products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.DebugContext(ctx, "Received request to find all products")
	list, err := h.service.FindAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if list == nil {
		list = []service.ProductDto{}
	}
	h.logger.DebugContext(ctx, "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	h.logger.DebugContext(ctx, "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(ctx, id)
	if err != nil {
		h.respondServiceError(w, r, id, err, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	h.logger.DebugContext(ctx, "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, input)
	if err != nil {
		h.respondServiceError(w, r, 0, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(ctx, "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Rename replaces the name of an existing product.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	h.logger.DebugContext(ctx, "Received request to rename product", "ID", id)
	if err := h.service.Rename(ctx, id, input); err != nil {
		h.respondServiceError(w, r, id, err, fmt.Sprintf("Failed to rename product with ID %d", id))
		return
	}
	h.logger.InfoContext(ctx, "Product renamed successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	h.logger.DebugContext(ctx, "Received request to delete product", "ID", id)
	if err := h.service.DeleteByID(ctx, id); err != nil {
		h.respondServiceError(w, r, id, err, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	h.logger.InfoContext(ctx, "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// Home answers with a plain text greeting.
func (h *Handler) Home(w http.ResponseWriter, _ *http.Request) {
	web.RespondText(w, http.StatusOK, Greeting)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeInput reads the JSON request body. A missing or malformed body, or anything
// after the first JSON value, is answered with 400.
func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var input service.ProductInput
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&input)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = fmt.Errorf("unexpected data after request body: %v", extra)
		}
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return service.ProductInput{}, false
	}
	return input, true
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, id int64, err error, failMsg string) {
	ctx := r.Context()
	field := "name"
	var fieldErr *producterrors.FieldError
	if errors.As(err, &fieldErr) {
		field = fieldErr.Field
	}

	switch {
	case errors.Is(err, producterrors.ErrMissingField):
		h.logger.WarnContext(ctx, "Missing field", "field", field)
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Missing field: %s", field))
	case errors.Is(err, producterrors.ErrInvalidFormat):
		h.logger.WarnContext(ctx, "Invalid field format", "field", field)
		web.RespondError(w, h.logger, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid format: %s", field))
	case errors.Is(err, producterrors.ErrProductNotFound):
		h.logger.WarnContext(ctx, "Product not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
	default:
		h.logger.ErrorContext(ctx, failMsg, "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, failMsg)
	}
}
