package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
	"github.com/precisesoft/ConnectKit-sub000/internal/service"
)

// ContactHandler handles contact requests. Every operation is scoped to
// the authenticated owner.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// Create handles contact creation
func (h *ContactHandler) Create(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	contact, err := h.contactService.Create(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// Get returns a single contact by id
func (h *ContactHandler) Get(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	contact, err := h.contactService.Get(c.Request.Context(), principal.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// List returns a filtered page of the owner's contacts
func (h *ContactHandler) List(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	filter := domain.ContactFilter{
		Search: c.Query("search"),
		Status: domain.ContactStatus(c.Query("status")),
		Tag:    c.Query("tag"),
	}

	if favorite := c.Query("favorite"); favorite != "" {
		value, err := strconv.ParseBool(favorite)
		if err != nil {
			respondError(c, domain.NewValidation("favorite must be a boolean"))
			return
		}
		filter.IsFavorite = &value
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PerPage, _ = strconv.Atoi(c.DefaultQuery("perPage", "20"))

	response, err := h.contactService.List(c.Request.Context(), principal.UserID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Update handles a full contact update
func (h *ContactHandler) Update(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), principal.UserID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// Delete soft-deletes a contact
func (h *ContactHandler) Delete(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), principal.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Contact deleted successfully"})
}

// Export streams the owner's contacts as a CSV attachment
func (h *ContactHandler) Export(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	filename := fmt.Sprintf("contacts-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.contactService.ExportCSV(c.Request.Context(), principal.UserID, c.Writer); err != nil {
		if !c.Writer.Written() {
			respondError(c, err)
		}
		return
	}
}
