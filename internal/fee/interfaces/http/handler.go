// 包 手续费报价的 HTTP 接口层
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mwangaza/sharewallet/internal/fee/application"
	"github.com/mwangaza/sharewallet/pkg/response"
)

// FeeHandler 手续费报价 HTTP 处理器
type FeeHandler struct {
	app *application.FeeService
}

func NewFeeHandler(app *application.FeeService) *FeeHandler {
	return &FeeHandler{app: app}
}

func (h *FeeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/fees/quote", h.Quote)
	rg.GET("/fees/schedules", h.Schedules)
}

// Quote GET /api/v1/fees/quote?type=withdraw&currency=UGX&amount=80000
func (h *FeeHandler) Quote(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		response.BadRequest(c, "amount must be a decimal string")
		return
	}

	quote, err := h.app.Quote(c.Request.Context(), c.Query("type"), c.Query("currency"), amount)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, quote)
}

// Schedules GET /api/v1/fees/schedules
func (h *FeeHandler) Schedules(c *gin.Context) {
	schedules, err := h.app.Schedules(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"schedules": schedules})
}
