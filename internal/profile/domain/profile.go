package domain

import (
	"context"
	"time"
)

// ProfileStatus 用户档案状态
type ProfileStatus string

const (
	ProfileActive    ProfileStatus = "active"
	ProfileSuspended ProfileStatus = "suspended"
	ProfileBlocked   ProfileStatus = "blocked"
)

// Profile 用户档案，决定限额档位与交易准入
type Profile struct {
	ID          uint64        `json:"id"`
	UserID      string        `json:"user_id"`
	AccountType string        `json:"account_type"`
	Status      ProfileStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CanTransact reports whether the profile is allowed to initiate transactions.
func (p *Profile) CanTransact() bool {
	return p.Status == ProfileActive
}

// ProfileRepository 档案仓储接口
type ProfileRepository interface {
	// Get 按用户查询档案，不存在时返回 nil
	Get(ctx context.Context, userID string) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}
