package infrastructure

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mwangaza/sharewallet/internal/audit/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
	"github.com/mwangaza/sharewallet/pkg/logger"
	"github.com/mwangaza/sharewallet/pkg/mq"
)

type EntryPO struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);index;not null"`
	Action    string    `gorm:"column:action;type:varchar(40);index;not null"`
	Reference string    `gorm:"column:reference;type:varchar(64);index"`
	Detail    string    `gorm:"column:detail;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (EntryPO) TableName() string { return "audit_logs" }

// GormRecorder 审计落库，与业务写入共用同一事务
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(gdb *gorm.DB) *GormRecorder {
	return &GormRecorder{db: gdb}
}

func (r *GormRecorder) Record(ctx context.Context, entry *domain.Entry) error {
	po := &EntryPO{
		UserID:    entry.UserID,
		Action:    string(entry.Action),
		Reference: entry.Reference,
		Detail:    entry.Detail,
	}
	if err := db.FromContext(ctx, r.db).WithContext(ctx).Create(po).Error; err != nil {
		return err
	}
	entry.ID = po.ID
	entry.CreatedAt = po.CreatedAt
	return nil
}

// KafkaPublisher 审计事件投递到 Kafka，供下游对账消费。
// 发布失败只记日志，不影响已提交的交易。
type KafkaPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

func NewKafkaPublisher(producer *mq.KafkaProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, entry *domain.Entry) error {
	if err := p.producer.SendMessage(ctx, p.topic, entry.UserID, entry); err != nil {
		logger.Error(ctx, "audit event publish failed",
			"action", entry.Action, "reference", entry.Reference, "error", err)
		return err
	}
	return nil
}
