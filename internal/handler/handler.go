package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
	"github.com/Jinwoo290350/PaiLOCAL/internal/service"
)

const maxBodyBytes = 1 << 20

// Handler bundles the services used by the HTTP endpoints.
type Handler struct {
	Locations *service.LocationService
	Health    *service.HealthService
	log       zerolog.Logger
}

// NewHandler creates a Handler with its service dependencies.
func NewHandler(ls *service.LocationService, hs *service.HealthService, log zerolog.Logger) *Handler {
	return &Handler{
		Locations: ls,
		Health:    hs,
		log:       log.With().Str("component", "handler").Logger(),
	}
}

// HealthCheck handles GET /healthcare/health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.Health.Check())
}

// CreateLocation handles POST /locations.
func (h *Handler) CreateLocation(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	in, errs := model.DecodeLocationCreate(body)
	if len(errs) > 0 {
		h.writeError(c, errs)
		return
	}
	loc, err := h.Locations.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// ListLocations handles GET /locations.
func (h *Handler) ListLocations(c *gin.Context) {
	locs, err := h.Locations.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if len(locs) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No locations found"})
		return
	}
	c.JSON(http.StatusOK, locs)
}

// GetLocation handles GET /locations/:id.
func (h *Handler) GetLocation(c *gin.Context) {
	loc, err := h.Locations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// UpdateLocation handles PATCH /locations/:id.
func (h *Handler) UpdateLocation(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	patch, errs := model.DecodeLocationPatch(body)
	if len(errs) > 0 {
		h.writeError(c, errs)
		return
	}
	loc, err := h.Locations.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// DeleteLocation handles DELETE /locations/:id.
func (h *Handler) DeleteLocation(c *gin.Context) {
	msg, err := h.Locations.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

type importRequest struct {
	PlaceID string `json:"placeID"`
	Keyword string `json:"keyword"`
}

// ImportLocation handles POST /locations/import.
func (h *Handler) ImportLocation(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, model.ValidationErrors{{Field: "body", Reason: "must be a JSON object"}})
		return
	}
	loc, err := h.Locations.Import(c.Request.Context(), req.PlaceID, req.Keyword)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return body, nil
}
