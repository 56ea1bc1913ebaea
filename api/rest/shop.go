package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/game/shop"
	mw "github.com/kasuganosora/textrpg/middleware"
	"go.uber.org/zap"
)

// ShopHandler serves the item catalog and purchases.
type ShopHandler struct {
	shop   *shop.Service
	logger *zap.Logger
}

// NewShopHandler creates a ShopHandler.
func NewShopHandler(s *shop.Service, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{shop: s, logger: logger}
}

// List handles GET /api/shop?kind=boost.
func (h *ShopHandler) List(c *gin.Context) {
	if kind := c.Query("kind"); kind != "" {
		c.JSON(http.StatusOK, gin.H{"items": shop.ByKind(kind)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": shop.Catalog()})
}

type buyRequest struct {
	Item string `json:"item" binding:"required,max=64"`
}

// Buy handles POST /api/shop/buy.
func (h *ShopHandler) Buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rc, err := h.shop.Purchase(c.Request.Context(), mw.GetPlayerKey(c), strings.ToLower(strings.TrimSpace(req.Item)))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": rc})
}
