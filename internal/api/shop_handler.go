package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/middleware"
	"github.com/wfunc/floran-server/internal/repository"
)

// ShopEntry 商店条目，价格以生物币计
type ShopEntry struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	DisplayName string `json:"display_name"`
	PriceBC     int64  `json:"price_bc"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

// 商店目录为进程级静态数据，条目引用对战道具表
var shopCatalog = []ShopEntry{
	{ID: "shop_watering_can", ItemID: "watering_can", DisplayName: "Gießkanne", PriceBC: 40, Category: "essential", Available: true},
	{ID: "shop_watering_wand", ItemID: "watering_wand", DisplayName: "Gießstab", PriceBC: 45, Category: "essential", Available: true},
	{ID: "shop_mulch", ItemID: "mulch", DisplayName: "Mulch-Sack", PriceBC: 50, Category: "essential", Available: true},
	{ID: "shop_stake", ItemID: "stake", DisplayName: "Stützstab", PriceBC: 60, Category: "essential", Available: true},
	{ID: "shop_drainage_gravel", ItemID: "drainage_gravel", DisplayName: "Drainage-Kies", PriceBC: 70, Category: "essential", Available: true},
	{ID: "shop_shade_cloth", ItemID: "shade_cloth", DisplayName: "Schattennetz", PriceBC: 75, Category: "utility", Available: true},
	{ID: "shop_compost_tea", ItemID: "compost_tea", DisplayName: "Komposttee-Kanne", PriceBC: 80, Category: "utility", Available: true},
	{ID: "shop_fertilizer_pellets", ItemID: "fertilizer_pellets", DisplayName: "Dünger-Pellets", PriceBC: 90, Category: "utility", Available: true},
	{ID: "shop_heat_lamp", ItemID: "heat_lamp", DisplayName: "Wärmelampe", PriceBC: 110, Category: "utility", Available: true},
	{ID: "shop_hydrogel_beads", ItemID: "hydrogel_beads", DisplayName: "Hydrogel-Perlen", PriceBC: 130, Category: "premium", Available: true},
	{ID: "shop_pot_xl", ItemID: "pot_xl", DisplayName: "Topf XL", PriceBC: 150, Category: "premium", Available: true},
}

// ShopHandler 商店处理器，目前只做目录展示与扣款
type ShopHandler struct {
	walletRepo repository.WalletRepository
	logger     *zap.Logger
}

// NewShopHandler 创建商店处理器
func NewShopHandler(walletRepo repository.WalletRepository, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{
		walletRepo: walletRepo,
		logger:     logger,
	}
}

// Catalog 商店目录
func (h *ShopHandler) Catalog(c *gin.Context) {
	entries := make([]ShopEntry, 0, len(shopCatalog))
	for _, e := range shopCatalog {
		if e.Available {
			entries = append(entries, e)
		}
	}
	c.JSON(http.StatusOK, gin.H{"catalog": entries})
}

// BuyRequest 购买请求
type BuyRequest struct {
	ShopItemID string `json:"shop_item_id" binding:"required"`
}

// Buy 购买商店条目，从钱包扣款并记流水
func (h *ShopHandler) Buy(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	var entry *ShopEntry
	for i := range shopCatalog {
		if shopCatalog[i].ID == req.ShopItemID && shopCatalog[i].Available {
			entry = &shopCatalog[i]
			break
		}
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "SHOP_ITEM_NOT_FOUND",
			Message: "商品不存在",
		})
		return
	}

	wallet, err := h.walletRepo.Debit(c.Request.Context(), userID, entry.PriceBC,
		"shop_"+entry.ItemID, entry.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.GetCode(err) == apperrors.ErrInsufficientBC {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{
			Code:    "PURCHASE_FAILED",
			Message: err.Error(),
		})
		return
	}

	h.logger.Info("商店购买成功",
		zap.Uint("user_id", userID),
		zap.String("shop_item_id", entry.ID),
		zap.Int64("price_bc", entry.PriceBC))

	c.JSON(http.StatusOK, gin.H{
		"item":       entry,
		"biocredits": wallet.BioCredits,
	})
}
