package domain

import (
	"context"
	"time"
)

// Action 审计动作
type Action string

const (
	ActionTransactionCreated Action = "transaction_created"
	ActionExchangeCompleted  Action = "exchange_completed"
	ActionLimitRejected      Action = "limit_rejected"
	ActionWalletCreated      Action = "wallet_created"
)

// Entry 审计日志条目，落库并异步投递到消息队列
type Entry struct {
	ID        uint64    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Reference string    `json:"reference"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder 审计记录接口
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
}

// Publisher 审计事件异步发布接口，失败不阻断主流程
type Publisher interface {
	Publish(ctx context.Context, entry *Entry) error
}
