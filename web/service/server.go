package service

import (
	"context"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/logger"
	"gorm.io/gorm"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Status is the health report served on /health.
type Status struct {
	Status   string    `json:"status"`
	Version  string    `json:"version"`
	Database string    `json:"database"`
	Redis    string    `json:"redis"`
	Uptime   uint64    `json:"uptime"`
	Loads    []float64 `json:"loads,omitempty"`
	Mem      struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"mem"`
	AppStats struct {
		Goroutines int    `json:"goroutines"`
		Mem        uint64 `json:"mem"`
		Uptime     uint64 `json:"uptime"`
	} `json:"appStats"`
}

// ServerService reports process and dependency health.
type ServerService struct {
	db      *gorm.DB
	redis   *redis.Client
	started time.Time
}

func NewServerService(db *gorm.DB, rdb *redis.Client) *ServerService {
	return &ServerService{db: db, redis: rdb, started: time.Now()}
}

// GetStatus probes the database and Redis and samples host statistics.
// Host statistics are best effort; only dependency failures mark the
// status as degraded.
func (s *ServerService) GetStatus(ctx context.Context) *Status {
	status := &Status{Status: StatusOK, Version: config.GetVersion(), Database: "ok", Redis: "ok"}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if sqlDB, err := s.db.DB(); err != nil {
		status.Database = err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		status.Database = err.Error()
	}
	if s.redis == nil {
		status.Redis = "disabled"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		status.Redis = err.Error()
	}
	if status.Database != "ok" || (status.Redis != "ok" && status.Redis != "disabled") {
		status.Status = StatusDegraded
	}

	if upTime, err := host.UptimeWithContext(ctx); err != nil {
		logger.Debug("get uptime failed: ", err)
	} else {
		status.Uptime = upTime
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.Debug("get virtual memory failed: ", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
	}
	if avg, err := load.AvgWithContext(ctx); err != nil {
		logger.Debug("get load avg failed: ", err)
	} else {
		status.Loads = []float64{avg.Load1, avg.Load5, avg.Load15}
	}

	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	status.AppStats.Goroutines = runtime.NumGoroutine()
	status.AppStats.Mem = rtm.Sys
	status.AppStats.Uptime = uint64(time.Since(s.started).Seconds())
	return status
}
