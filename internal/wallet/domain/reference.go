package domain

import (
	"fmt"
	"strings"
	"time"
)

// NewReference 生成交易引用号：{TYPE}-{epochMillis}-{userID 前 8 位}。
// 下游对账依赖该格式，不可变更。
func NewReference(txType TransactionType, userID string, at time.Time) string {
	prefix := userID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(string(txType)), at.UnixMilli(), prefix)
}
