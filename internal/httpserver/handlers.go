package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/cart"
	"appcheckout/internal/service/checkout"
)

type handlers struct {
	checkout Checkout
	sessions SessionIssuer
	products Catalog
	currency string
	logger   *zap.Logger
}

func (h *handlers) createSession(c *gin.Context) {
	id := h.sessions.Issue()
	c.Header(sessionHeader, id)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id, "expiresIn": h.sessions.TTLSeconds()})
}

func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.checkout.Clear(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		writeError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProduct(p, h.currency))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p, h.currency))
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.checkout.GetCart(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(view, h.currency))
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	key, view, err := h.checkout.AddItem(c.Request.Context(), sessionID(c), cart.AddInput{
		ProductID:   req.ProductID,
		Quantity:    qty,
		VariationID: req.VariationID,
		Variation:   req.Variation,
		LineData:    req.LineData,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemKey": key, "cart": toCart(view, h.currency)})
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	view, err := h.checkout.SetQuantity(c.Request.Context(), sessionID(c), req.Key, *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(view, h.currency))
}

func (h *handlers) removeItem(c *gin.Context) {
	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	view, err := h.checkout.RemoveItem(c.Request.Context(), sessionID(c), req.Key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(view, h.currency))
}

func (h *handlers) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	view, err := h.checkout.ApplyCoupon(c.Request.Context(), sessionID(c), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(view, h.currency))
}

func (h *handlers) removeCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	removed, view, err := h.checkout.RemoveCoupon(c.Request.Context(), sessionID(c), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "cart": toCart(view, h.currency)})
}

func (h *handlers) getTotals(c *gin.Context) {
	withShipping := false
	if raw := c.Query("shipping"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, domain.Validation(domain.CodeInvalidRequest, "shipping must be a boolean"))
			return
		}
		withShipping = v
	}
	totals, err := h.checkout.GetTotals(c.Request.Context(), sessionID(c), withShipping)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTotals(*totals, h.currency))
}

func (h *handlers) getShippingMethods(c *gin.Context) {
	pkgs, err := h.checkout.GetShippingOptions(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": toPackages(pkgs, h.currency)})
}

func (h *handlers) updateShipping(c *gin.Context) {
	var req updateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	update, err := h.checkout.UpdateShipping(c.Request.Context(), sessionID(c), req.Selections)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShippingUpdate(update, h.currency))
}

func (h *handlers) updateOrderReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	review, err := h.checkout.UpdateOrderReview(c.Request.Context(), sessionID(c), checkout.ReviewInput{
		Address: domain.CustomerAddress{
			Billing:         req.Billing,
			Shipping:        req.Shipping,
			ShipToDifferent: req.ShipToDifferent,
		},
		Selections:    req.Selections,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReview(review, h.currency))
}

func (h *handlers) finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, bindError(err))
		return
	}
	ref, err := h.checkout.Finalize(c.Request.Context(), sessionID(c), req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": ref.ID, "orderNumber": ref.Number, "placedAt": ref.PlacedAt})
}
