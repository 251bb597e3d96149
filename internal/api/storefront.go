package api

import (
	"net/http"
	"strconv"

	"storefront-orders/internal/auth"
	"storefront-orders/internal/service"
	"storefront-orders/internal/store"

	"github.com/gin-gonic/gin"
)

type requestCodeReq struct {
	Email string `json:"email"`
}

func (h *Handler) requestCode(c *gin.Context) {
	var req requestCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.svc.Login.RequestCode(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type verifyCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) verifyCode(c *gin.Context) {
	var req verifyCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.svc.Login.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, session.Token, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    session.Token,
		"customer": session.Customer,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Login.Logout(c.Request.Context(), auth.TokenFromRequest(c.Request)); err != nil {
		h.respondError(c, err)
		return
	}

	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", h.opts.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) me(c *gin.Context) {
	customer, err := h.svc.Login.Customer(c.Request.Context(), customerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customer})
}

// Cart

func (h *Handler) getCart(c *gin.Context) {
	items, err := h.svc.Cart.Items(c.Request.Context(), customerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req service.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	item, err := h.svc.Cart.AddItem(c.Request.Context(), customerID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	itemID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	if err := h.svc.Cart.RemoveItem(c.Request.Context(), customerID(c), itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.svc.Cart.Clear(c.Request.Context(), customerID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Catalog

func (h *Handler) searchProducts(c *gin.Context) {
	f := store.ProductFilter{
		Query:        c.Query("q"),
		Manufacturer: c.Query("manufacturer"),
		Category:     c.Query("category"),
		Pattern:      c.Query("pattern"),
		Collection:   c.Query("collection"),
	}
	if v := c.Query("quickship"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quickship"})
			return
		}
		f.Quickship = &b
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}

	products, err := h.svc.Catalog.Search(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, err := h.svc.Catalog.Product(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *Handler) listVenues(c *gin.Context) {
	venues, err := h.svc.Catalog.CustomerVenues(c.Request.Context(), customerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "venues": venues})
}

func (h *Handler) venueProducts(c *gin.Context) {
	venueID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue id"})
		return
	}

	products, err := h.svc.Catalog.VenueProducts(c.Request.Context(), customerID(c), venueID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

// Admin

type attachVenueReq struct {
	VenueID service.FlexString `json:"venueId"`
}

func (h *Handler) attachVenue(c *gin.Context) {
	customer, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
		return
	}
	var req attachVenueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	venueID, err := parseID(req.VenueID.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venueId"})
		return
	}

	if err := h.svc.Catalog.AttachVenue(c.Request.Context(), customer, venueID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) detachVenue(c *gin.Context) {
	customer, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
		return
	}
	venueID, err := parseID(c.Param("venueId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue id"})
		return
	}

	if err := h.svc.Catalog.DetachVenue(c.Request.Context(), customer, venueID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type attachProductReq struct {
	ProductID service.FlexString `json:"productId"`
}

func (h *Handler) attachVenueProduct(c *gin.Context) {
	venueID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue id"})
		return
	}
	var req attachProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	productID, err := parseID(req.ProductID.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid productId"})
		return
	}

	if err := h.svc.Catalog.AttachProduct(c.Request.Context(), venueID, productID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
