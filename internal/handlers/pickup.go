package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/models"
	"ecoloop/internal/services"
)

type PickupHandler struct {
	pickups *services.Pickups
}

func NewPickupHandler(pickups *services.Pickups) *PickupHandler {
	return &PickupHandler{pickups: pickups}
}

type proposeRequest struct {
	PickupTime     *time.Time `json:"pickupTime"`
	PickupLocation string     `json:"pickupLocation"`
}

type completeRequest struct {
	FinalWaste    *models.FinalWaste `json:"finalWaste"`
	ProofOfPickup string             `json:"proofOfPickup"`
}

// Propose is called by the would-be collector on someone else's post.
func (h *PickupHandler) Propose(c *gin.Context) {
	var req proposeRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.ProposeInput{PickupLocation: req.PickupLocation}
	if req.PickupTime != nil {
		in.PickupTime = req.PickupTime.UTC()
	}
	p, err := h.pickups.Propose(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List supports ?role=giver|collector&status=&limit=.
func (h *PickupHandler) List(c *gin.Context) {
	list, err := h.pickups.ListForUser(c.Request.Context(), actor(c),
		services.PickupRole(c.Query("role")), models.PickupStatus(c.Query("status")), pageSize(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pickups": list})
}

func (h *PickupHandler) Detail(c *gin.Context) {
	p, err := h.pickups.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PickupHandler) Confirm(c *gin.Context) {
	p, err := h.pickups.Confirm(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Complete hands a body that fails to decode to the service, which reports
// it only after the pickup's existence, parties and status are checked.
func (h *PickupHandler) Complete(c *gin.Context) {
	var req completeRequest
	in := services.CompleteInput{}
	if err := c.ShouldBindJSON(&req); err != nil {
		in.DecodeErr = err
	} else {
		in.FinalWaste = req.FinalWaste
		in.ProofOfPickup = req.ProofOfPickup
	}
	p, err := h.pickups.Complete(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PickupHandler) Cancel(c *gin.Context) {
	p, err := h.pickups.Cancel(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
