// 包 domain 钱包服务的领域模型
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletStatus 钱包状态
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusClosed    WalletStatus = "closed"
)

// Wallet 钱包实体
// 一个用户在一个币种下唯一的余额记录
type Wallet struct {
	gorm.Model
	// 钱包 ID (业务主键)，全局唯一
	WalletID string `gorm:"column:wallet_id;type:varchar(32);uniqueIndex;not null" json:"wallet_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(64);index:idx_user_currency,unique;not null" json:"user_id"`
	// 币种（如 UGX, USD, KES）
	Currency string `gorm:"column:currency;type:varchar(10);index:idx_user_currency,unique;not null" json:"currency"`
	// 余额，只能由已完成的交易变更
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(32,8);default:0;not null" json:"balance"`
	// 状态
	Status WalletStatus `gorm:"column:status;type:varchar(20);default:'active';not null" json:"status"`
}

func (Wallet) TableName() string { return "wallets" }

// TransactionType 交易类型
type TransactionType string

const (
	TypeDeposit  TransactionType = "deposit"
	TypeWithdraw TransactionType = "withdraw"
	TypeTransfer TransactionType = "transfer"
	TypeExchange TransactionType = "exchange"
)

// IsDebit 判断该类型是否从钱包扣款（充值与兑换入账腿为贷记）
func (t TransactionType) IsDebit() bool {
	switch t {
	case TypeWithdraw, TypeTransfer, TypeExchange:
		return true
	}
	return false
}

// TransactionStatus 交易状态；completed/failed 由外部结算流程写入
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// ApprovalStatus 审批状态
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Transaction 交易记录
// 金额带符号：贷记为正，借记为负。completed 之后金额不可变更。
type Transaction struct {
	gorm.Model
	// 业务引用号，对账下游消费的稳定契约：{TYPE}-{epochMillis}-{userID 前 8 位}
	Reference string `gorm:"column:reference;type:varchar(64);uniqueIndex;not null" json:"reference"`
	// 钱包 ID
	WalletID string `gorm:"column:wallet_id;type:varchar(32);index;not null" json:"wallet_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(64);index;not null" json:"user_id"`
	// 交易类型
	Type TransactionType `gorm:"column:type;type:varchar(20);index;not null" json:"type"`
	// 金额（带符号）
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,8);not null" json:"amount"`
	// 币种
	Currency string `gorm:"column:currency;type:varchar(10);index;not null" json:"currency"`
	// 手续费
	FeeAmount decimal.Decimal `gorm:"column:fee_amount;type:decimal(32,8);default:0;not null" json:"fee_amount"`
	// 状态
	Status TransactionStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 审批状态
	ApprovalStatus ApprovalStatus `gorm:"column:approval_status;type:varchar(20);not null" json:"approval_status"`
	// 描述
	Description string `gorm:"column:description;type:varchar(255)" json:"description"`
	// 附加信息（JSON 文本）
	Metadata string `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }
