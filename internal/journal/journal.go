package journal

import (
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"main/internal/risk"
	"main/internal/schema"
)

// Fill is one confirmed execution.
type Fill struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	MarketID   string `gorm:"index"`
	MarketSlug string
	OrderID    string
	Side       string
	PriceTicks int64
	Size       int64
	Maker      bool
	FilledAt   time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// RiskTransition is one latch change.
type RiskTransition struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	MarketID   string `gorm:"index"`
	MarketSlug string
	FromStatus string
	ToStatus   string
	PnLMilli   int64
	At         time.Time
	CreatedAt  time.Time
}

// Journal persists fills and risk transitions to Postgres. Writes are
// best-effort: a database hiccup is logged, never allowed to stall trading.
type Journal struct {
	db *gorm.DB
}

// Open connects and migrates. An empty DSN returns a nil journal, which every
// caller treats as "recording disabled".
func Open(dsn string) (*Journal, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.AutoMigrate(&Fill{}, &RiskTransition{}); err != nil {
		return nil, errors.Wrap(err, "migrate journal tables")
	}
	return &Journal{db: db}, nil
}

// RecordFill persists one fill event.
func (j *Journal) RecordFill(market schema.Market, ev schema.Event) {
	if j == nil {
		return
	}
	row := Fill{
		MarketID:   market.ID,
		MarketSlug: market.Slug,
		OrderID:    ev.OrderID,
		Side:       ev.FillSide.String(),
		PriceTicks: int64(ev.PriceTicks),
		Size:       int64(ev.FillSize),
		Maker:      ev.IsMaker,
		FilledAt:   ev.At,
	}
	if err := j.db.Create(&row).Error; err != nil {
		logs.Errorf("journal fill: %+v", err)
	}
}

// RecordRiskTransition persists one latch change.
func (j *Journal) RecordRiskTransition(market schema.Market, tr risk.Transition, at time.Time) {
	if j == nil {
		return
	}
	row := RiskTransition{
		MarketID:   market.ID,
		MarketSlug: market.Slug,
		FromStatus: tr.From.String(),
		ToStatus:   tr.To.String(),
		PnLMilli:   int64(tr.PnL),
		At:         at,
	}
	if err := j.db.Create(&row).Error; err != nil {
		logs.Errorf("journal risk transition: %+v", err)
	}
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
