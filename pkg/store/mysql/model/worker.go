package model

import "time"

// MinerWorker represents a cached worker row
type MinerWorker struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	WorkerID      string         `gorm:"column:worker_id;type:varchar(255);not null;uniqueIndex"`
	Position      int            `gorm:"column:position;not null;index"` // Cache order
	Hashrate      *float64       `gorm:"column:hashrate"`
	CPUModel      string         `gorm:"column:cpu_model;type:varchar(255);not null;default:''"`
	TotalMemoryMB float64        `gorm:"column:total_memory_mb;not null;default:0"`
	FreeMemoryMB  float64        `gorm:"column:free_memory_mb;not null;default:0"`
	LoadAverage   JSONFloatArray `gorm:"column:load_average;type:json"`
	Cores         *int           `gorm:"column:cores"` // NULL = unknown
	Threads       *int           `gorm:"column:threads"`
	Pool          string         `gorm:"column:pool;type:varchar(255);not null;default:''"`
	Status        string         `gorm:"column:status;type:varchar(20);not null;default:'offline'"`
	SourceURL     string         `gorm:"column:source_url;type:varchar(1024);not null;default:''"`
	LastSeen      *time.Time     `gorm:"column:last_seen;type:datetime(3)"`
	CreatedAt     time.Time      `gorm:"column:created_at;type:datetime(3);not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;type:datetime(3);not null"`
}

func (MinerWorker) TableName() string {
	return "miner_workers"
}
