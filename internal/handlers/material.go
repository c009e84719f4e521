package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/models"
	"ecoloop/internal/services"
)

type MaterialHandler struct {
	catalog *services.Catalog
}

func NewMaterialHandler(catalog *services.Catalog) *MaterialHandler {
	return &MaterialHandler{catalog: catalog}
}

type materialRequest struct {
	Type         models.MaterialType `json:"type" binding:"required"`
	InitialPrice *float64            `json:"initialPrice"`
}

type priceRequest struct {
	Price *float64   `json:"price" binding:"required"`
	Date  *time.Time `json:"date"`
}

func (h *MaterialHandler) List(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": list})
}

func (h *MaterialHandler) Detail(c *gin.Context) {
	m, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MaterialHandler) Create(c *gin.Context) {
	var req materialRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.catalog.Create(c.Request.Context(), actor(c), req.Type, req.InitialPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// RecordPrice appends a price observation; the date defaults to now.
func (h *MaterialHandler) RecordPrice(c *gin.Context) {
	var req priceRequest
	if !bindJSON(c, &req) {
		return
	}
	var date time.Time
	if req.Date != nil {
		date = req.Date.UTC()
	}
	m, err := h.catalog.RecordPrice(c.Request.Context(), actor(c), c.Param("id"), *req.Price, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
