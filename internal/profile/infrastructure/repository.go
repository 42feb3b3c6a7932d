package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mwangaza/sharewallet/internal/profile/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
)

type ProfilePO struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;type:varchar(64);uniqueIndex;not null"`
	AccountType string    `gorm:"column:account_type;type:varchar(20);default:'basic';not null"`
	Status      string    `gorm:"column:status;type:varchar(20);default:'active';not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProfilePO) TableName() string { return "profiles" }

func toProfilePO(p *domain.Profile) *ProfilePO {
	return &ProfilePO{
		ID:          p.ID,
		UserID:      p.UserID,
		AccountType: p.AccountType,
		Status:      string(p.Status),
	}
}

func toProfile(po *ProfilePO) *domain.Profile {
	return &domain.Profile{
		ID:          po.ID,
		UserID:      po.UserID,
		AccountType: po.AccountType,
		Status:      domain.ProfileStatus(po.Status),
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(gdb *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: gdb}
}

func (r *GormProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var po ProfilePO
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toProfile(&po), nil
}

func (r *GormProfileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	po := toProfilePO(profile)
	if err := db.FromContext(ctx, r.db).WithContext(ctx).Save(po).Error; err != nil {
		return err
	}
	profile.ID = po.ID
	return nil
}
