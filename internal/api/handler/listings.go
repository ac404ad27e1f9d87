package handler

import (
	"net/http"

	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func toListingDTOs(listings []models.Listing) []models.ListingDTO {
	return lo.Map(listings, func(l models.Listing, _ int) models.ListingDTO {
		return models.ToListingDTO(l)
	})
}

// SearchListings filters by ?q=&course=&condition=&minPrice=&maxPrice=.
func (h *Handler) SearchListings(c *gin.Context) {
	var filter models.ListingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	listings, err := h.Listings.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingDTOs(listings))
}

// MyListings returns the caller's own listings.
func (h *Handler) MyListings(c *gin.Context) {
	user, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	listings, err := h.Listings.Mine(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingDTOs(listings))
}

func (h *Handler) GetListing(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	l, err := h.Listings.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToListingDTO(*l))
}

func (h *Handler) CreateListing(c *gin.Context) {
	user, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	l, err := h.Listings.Create(c.Request.Context(), user, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToListingDTO(*l))
}

func (h *Handler) UpdateListing(c *gin.Context) {
	user, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	l, err := h.Listings.Update(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToListingDTO(*l))
}

func (h *Handler) DeleteListing(c *gin.Context) {
	user, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Listings.Delete(c.Request.Context(), user, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
