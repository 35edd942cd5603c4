package optimize

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sweepRecord is the GORM row shape for one archived sweep combination.
type sweepRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SweepTag  string `gorm:"index"`
	Objective string
	Params    string // JSON-encoded name -> value
	Score     float64
	Error     string
	Best      bool
	CreatedAt time.Time
}

func (sweepRecord) TableName() string { return "optimization_results" }

// Archive is an opt-in SQLite-backed store for sweep results, so an
// overnight optimization's outcome survives the process that ran it.
type Archive struct {
	db *gorm.DB
}

// OpenArchive opens (creating if absent) a SQLite database at path and
// migrates the optimization_results table.
func OpenArchive(path string) (*Archive, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("optimize: open archive: %w", err)
	}
	if err := db.AutoMigrate(&sweepRecord{}); err != nil {
		return nil, fmt.Errorf("optimize: migrate archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Save persists every combination of a sweep under tag, marking the best
// one.
func (a *Archive) Save(tag string, objective Objective, report Report) error {
	for _, r := range report.AllResults {
		params, err := encodeParams(r.Params)
		if err != nil {
			return err
		}
		rec := sweepRecord{
			SweepTag:  tag,
			Objective: string(objective),
			Params:    params,
			Score:     r.Score,
			Error:     r.Error,
			Best:      paramsEqual(r.Params, report.BestParams),
			CreatedAt: time.Now(),
		}
		if err := a.db.Create(&rec).Error; err != nil {
			return fmt.Errorf("optimize: archive sweep %q: %w", tag, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func encodeParams(set ParameterSet) (string, error) {
	flat := make(map[string]string, len(set))
	for k, v := range set {
		flat[k] = v.String()
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("optimize: encode params: %w", err)
	}
	return string(data), nil
}

func paramsEqual(a, b ParameterSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || !v.Equal(other) {
			return false
		}
	}
	return true
}
