// 包 限额预检的 HTTP 接口层
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mwangaza/sharewallet/internal/limit/application"
	"github.com/mwangaza/sharewallet/pkg/middleware"
	"github.com/mwangaza/sharewallet/pkg/response"
)

// LimitHandler 限额预检 HTTP 处理器
type LimitHandler struct {
	app *application.LimitService
}

func NewLimitHandler(app *application.LimitService) *LimitHandler {
	return &LimitHandler{app: app}
}

func (h *LimitHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/limits/check", h.Check)
	rg.GET("/limits/definitions", h.Definitions)
}

type checkBody struct {
	TransactionType string `json:"transactionType" binding:"required"`
	Currency        string `json:"currency"`
	Amount          string `json:"amount" binding:"required"`
	OwnedShares     string `json:"ownedShares"`
}

// Check POST /api/v1/limits/check
func (h *LimitHandler) Check(c *gin.Context) {
	var body checkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		response.BadRequest(c, "amount must be a decimal string")
		return
	}
	owned := decimal.Zero
	if body.OwnedShares != "" {
		owned, err = decimal.NewFromString(body.OwnedShares)
		if err != nil {
			response.BadRequest(c, "ownedShares must be a decimal string")
			return
		}
	}

	result, err := h.app.Check(c.Request.Context(), &application.CheckRequest{
		UserID:          middleware.UserID(c),
		TransactionType: body.TransactionType,
		Currency:        body.Currency,
		Amount:          amount,
		OwnedShares:     owned,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, result)
}

// Definitions GET /api/v1/limits/definitions
func (h *LimitHandler) Definitions(c *gin.Context) {
	defs, err := h.app.Definitions(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"definitions": defs})
}
