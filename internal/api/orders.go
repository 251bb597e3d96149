package api

import (
	"net/http"

	"storefront-orders/internal/auth"
	"storefront-orders/internal/service"

	"github.com/gin-gonic/gin"
)

// submitOrders turns the posted cart into one order per venue
func (h *Handler) submitOrders(c *gin.Context) {
	var req service.SubmitOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	resp, err := h.svc.Orders.SubmitOrders(c.Request.Context(), customerID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) orderHistory(c *gin.Context) {
	orders, err := h.svc.Orders.GetOrderHistory(c.Request.Context(), customerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// newOrders is the vendor feed of orders still in status new. Session
// callers only see their own venues.
func (h *Handler) newOrders(c *gin.Context) {
	ctx := c.Request.Context()

	var venueIDs []int64
	if raw := c.Query("venueId"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venueId"})
			return
		}
		venueIDs = []int64{id}
	}

	if p := principal(c); p != nil && p.Method == auth.MethodSession {
		own, err := h.svc.Orders.CustomerVenueIDs(ctx, p.CustomerID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		venueIDs = restrictVenues(venueIDs, own)
	}

	orders, err := h.svc.Orders.ListNewOrders(ctx, venueIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// restrictVenues narrows a requested venue filter to allowed. A nil
// requested filter means all allowed venues; the result is never nil.
func restrictVenues(requested, allowed []int64) []int64 {
	if requested == nil {
		return append([]int64{}, allowed...)
	}

	ok := make(map[int64]bool, len(allowed))
	for _, id := range allowed {
		ok[id] = true
	}
	out := []int64{}
	for _, id := range requested {
		if ok[id] {
			out = append(out, id)
		}
	}
	return out
}

type updateOrdersRequest struct {
	Orders []service.StatusUpdate `json:"orders"`
}

// updateOrders applies vendor status updates. Per-record failures are in
// the body; the response itself is always a success.
func (h *Handler) updateOrders(c *gin.Context) {
	var req updateOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Orders == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected an orders array"})
		return
	}

	results := h.svc.Status.ApplyUpdates(c.Request.Context(), service.SourceHTTP, req.Orders)
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (h *Handler) venueAccess(c *gin.Context) {
	venueID, err := parseID(c.Query("venueId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venueId"})
		return
	}

	ok, err := h.svc.Access.CheckAccess(c.Request.Context(), customerID(c), venueID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hasAccess": ok})
}
