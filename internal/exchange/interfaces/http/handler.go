// 包 币种兑换的 HTTP 接口层
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mwangaza/sharewallet/internal/exchange/application"
	"github.com/mwangaza/sharewallet/pkg/middleware"
	"github.com/mwangaza/sharewallet/pkg/response"
)

// ExchangeHandler 兑换 HTTP 处理器
type ExchangeHandler struct {
	app *application.ExchangeService
}

func NewExchangeHandler(app *application.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{app: app}
}

func (h *ExchangeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/exchange", h.Exchange)
	rg.GET("/exchange/quote", h.Quote)
}

type exchangeBody struct {
	UserID       string `json:"userId"`
	FromCurrency string `json:"fromCurrency" binding:"required"`
	ToCurrency   string `json:"toCurrency" binding:"required"`
	FromAmount   string `json:"fromAmount" binding:"required"`
	Description  string `json:"description"`
}

// Exchange POST /api/v1/exchange
// body 中的 userId 必须与 token 主体一致，防止替他人兑换
func (h *ExchangeHandler) Exchange(c *gin.Context) {
	var body exchangeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	actor := middleware.UserID(c)
	if body.UserID != "" && body.UserID != actor {
		response.BadRequest(c, "userId does not match the authenticated user")
		return
	}

	amount, err := decimal.NewFromString(body.FromAmount)
	if err != nil {
		response.BadRequest(c, "fromAmount must be a decimal string")
		return
	}

	result, err := h.app.Exchange(c.Request.Context(), &application.ExchangeRequest{
		UserID:       actor,
		FromCurrency: body.FromCurrency,
		ToCurrency:   body.ToCurrency,
		Amount:       amount,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKBody(c, gin.H{"transaction": result})
}

// Quote GET /api/v1/exchange/quote?from=USD&to=UGX&amount=10
func (h *ExchangeHandler) Quote(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		response.BadRequest(c, "amount must be a decimal string")
		return
	}

	result, err := h.app.Quote(c.Request.Context(), c.Query("from"), c.Query("to"), amount)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, result)
}
