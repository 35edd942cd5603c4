package order

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// historyRecord is the GORM row shape for an archived, final-state order.
// It is a flattened projection of Order -- the store's in-memory partitions
// stay the authoritative runtime representation; this table only exists so
// history survives a process restart.
type historyRecord struct {
	ClientOrderID   string `gorm:"primaryKey"`
	ExchangeOrderID uint64 `gorm:"index"`
	Base            string
	Quote           string
	Side            string
	OrderType       string
	Amount          string
	Price           string
	Status          string
	FilledAmount    string
	AvgFillPrice    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (historyRecord) TableName() string { return "order_history" }

// ResultStore is an opt-in SQLite-backed archive for the order store's
// history partition. The in-memory history grows without bound over a long
// live session; archiving gives that growth somewhere durable to land and
// lets a restarted process see what it was doing before.
type ResultStore struct {
	db *gorm.DB
}

// OpenResultStore opens (creating if absent) a SQLite database at path and
// migrates the order_history table.
func OpenResultStore(path string) (*ResultStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("order: open result store: %w", err)
	}
	if err := db.AutoMigrate(&historyRecord{}); err != nil {
		return nil, fmt.Errorf("order: migrate result store: %w", err)
	}
	return &ResultStore{db: db}, nil
}

// Archive persists every order currently in the store's history partition.
// Rows are upserted by client_order_id so repeated calls are idempotent.
func (r *ResultStore) Archive(s *Store) error {
	for _, o := range s.History() {
		rec := toHistoryRecord(o)
		if err := r.db.Save(&rec).Error; err != nil {
			return fmt.Errorf("order: archive %s: %w", o.ClientOrderID, err)
		}
	}
	return nil
}

// Load returns every archived history record's client order id, for
// startup reconciliation against a live exchange.
func (r *ResultStore) Load() ([]string, error) {
	var recs []historyRecord
	if err := r.db.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("order: load result store: %w", err)
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ClientOrderID
	}
	return ids, nil
}

// Close releases the underlying database handle.
func (r *ResultStore) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toHistoryRecord(o *Order) historyRecord {
	var exchangeID uint64
	if o.ExchangeOrderID != nil {
		exchangeID = *o.ExchangeOrderID
	}
	var price, avgFill string
	if o.Price != nil {
		price = o.Price.String()
	}
	if o.AvgFillPrice != nil {
		avgFill = o.AvgFillPrice.String()
	}
	return historyRecord{
		ClientOrderID:   o.ClientOrderID,
		ExchangeOrderID: exchangeID,
		Base:            o.Pair.Base,
		Quote:           o.Pair.Quote,
		Side:            string(o.Side),
		OrderType:       string(o.OrderType),
		Amount:          o.Amount.String(),
		Price:           price,
		Status:          string(o.Status),
		FilledAmount:    o.FilledAmount.String(),
		AvgFillPrice:    avgFill,
		CreatedAt:       o.CreatedAt.Time(),
		UpdatedAt:       o.UpdatedAt.Time(),
	}
}
