// Package response 提供 gin 统一响应封装与领域错误到 HTTP 状态码的映射
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	walletdomain "github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/logger"
)

// Body 统一响应结构
type Body struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK 成功响应
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// OKBody 成功响应，payload 键平铺在响应体顶层
// 用于对外契约要求 {success, transaction, ...} 顶层结构的端点
func OKBody(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Created 创建成功响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: msg})
}

// Fail 按领域错误类型映射状态码：
// 校验/未找到 400，非本人钱包 403，并发冲突 409，脏数据与未知错误 500。
// 校验与未找到都归 400，避免钱包 ID 枚举探测。
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, walletdomain.ErrNotWalletOwner):
		c.JSON(http.StatusForbidden, Body{Success: false, Error: "wallet does not belong to the acting user"})
	case walletdomain.IsValidation(err), walletdomain.IsNotFound(err):
		c.JSON(http.StatusBadRequest, Body{Success: false, Error: err.Error()})
	case walletdomain.IsConcurrency(err):
		c.JSON(http.StatusConflict, Body{Success: false, Error: err.Error()})
	case walletdomain.IsFatalData(err):
		logger.Error(c.Request.Context(), "Fatal data error", "error", err)
		c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err.Error()})
	default:
		logger.Error(c.Request.Context(), "Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, Body{Success: false, Error: "internal server error"})
	}
}
