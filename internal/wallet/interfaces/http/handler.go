// 包 钱包服务的 HTTP 接口层
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	exchangeapp "github.com/mwangaza/sharewallet/internal/exchange/application"
	"github.com/mwangaza/sharewallet/internal/wallet/application"
	"github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/middleware"
	"github.com/mwangaza/sharewallet/pkg/response"
)

// WalletHandler 钱包与交易的 HTTP 处理器
// transactionType=exchange 的创建请求转给兑换编排服务处理
type WalletHandler struct {
	app      *application.TransactionService
	exchange *exchangeapp.ExchangeService
}

func NewWalletHandler(app *application.TransactionService, exchange *exchangeapp.ExchangeService) *WalletHandler {
	return &WalletHandler{app: app, exchange: exchange}
}

// RegisterRoutes 注册路由，调用方负责挂载鉴权中间件
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/wallets", h.CreateWallet)
	rg.GET("/wallets", h.ListWallets)
	rg.GET("/wallets/:walletId", h.GetWallet)
	rg.GET("/wallets/:walletId/transactions", h.ListTransactions)
	rg.POST("/transactions", h.CreateTransaction)
}

type createWalletBody struct {
	Currency string `json:"currency" binding:"required"`
}

// CreateWallet POST /api/v1/wallets
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var body createWalletBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.app.CreateWallet(c.Request.Context(), &application.CreateWalletRequest{
		UserID:   middleware.UserID(c),
		Currency: body.Currency,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, dto)
}

// ListWallets GET /api/v1/wallets
func (h *WalletHandler) ListWallets(c *gin.Context) {
	dtos, err := h.app.ListWallets(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"wallets": dtos})
}

// GetWallet GET /api/v1/wallets/:walletId
func (h *WalletHandler) GetWallet(c *gin.Context) {
	dto, err := h.app.GetWallet(c.Request.Context(), middleware.UserID(c), c.Param("walletId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto)
}

// ListTransactions GET /api/v1/wallets/:walletId/transactions?page=1&pageSize=20
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	dtos, total, err := h.app.ListTransactions(c.Request.Context(),
		middleware.UserID(c), c.Param("walletId"), page, pageSize)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"transactions": dtos,
		"total":        total,
		"page":         page,
		"pageSize":     pageSize,
	})
}

type createTransactionBody struct {
	TransactionType string         `json:"transactionType" binding:"required"`
	Amount          string         `json:"amount" binding:"required"`
	Currency        string         `json:"currency"`
	WalletID        string         `json:"walletId"`
	Description     string         `json:"description"`
	Metadata        map[string]any `json:"metadata"`
	RecipientID     string         `json:"recipientId"`
	RecipientEmail  string         `json:"recipientEmail"`
	RecipientPhone  string         `json:"recipientPhone"`
	ToCurrency      string         `json:"toCurrency"`
	ToWalletID      string         `json:"toWalletId"`
}

// recipientMetadata 把收款方字段并入附加信息，由结算流程消费
func recipientMetadata(body *createTransactionBody) map[string]any {
	metadata := body.Metadata
	fields := []struct{ key, value string }{
		{"recipientId", body.RecipientID},
		{"recipientEmail", body.RecipientEmail},
		{"recipientPhone", body.RecipientPhone},
		{"toWalletId", body.ToWalletID},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[f.key] = f.value
	}
	return metadata
}

// CreateTransaction POST /api/v1/transactions
// transactionType=exchange 的请求转给兑换编排服务，其余走交易编排
func (h *WalletHandler) CreateTransaction(c *gin.Context) {
	var body createTransactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		response.BadRequest(c, "amount must be a decimal string")
		return
	}

	if domain.TransactionType(body.TransactionType) == domain.TypeExchange {
		if body.Currency == "" || body.ToCurrency == "" {
			response.BadRequest(c, "currency and toCurrency are required for exchange")
			return
		}
		result, err := h.exchange.Exchange(c.Request.Context(), &exchangeapp.ExchangeRequest{
			UserID:       middleware.UserID(c),
			FromCurrency: body.Currency,
			ToCurrency:   body.ToCurrency,
			Amount:       amount,
		})
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OKBody(c, gin.H{"transaction": result})
		return
	}

	dto, err := h.app.CreateTransaction(c.Request.Context(), &application.CreateTransactionRequest{
		UserID:      middleware.UserID(c),
		WalletID:    body.WalletID,
		Type:        domain.TransactionType(body.TransactionType),
		Amount:      amount,
		Currency:    body.Currency,
		Description: body.Description,
		Metadata:    recipientMetadata(&body),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKBody(c, gin.H{"transaction": dto})
}
