package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const probeTimeout = 3 * time.Second

// Dependency states.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// MarketCounter reports a snapshot of the marketplace tables.
type MarketCounter interface {
	Snapshot(ctx context.Context) (MarketInfo, error)
}

type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Market       *MarketInfo          `json:"market"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

// MarketInfo counts live marketplace state.
type MarketInfo struct {
	ActiveListings int64  `json:"activeListings"`
	ActiveOffers   int64  `json:"activeOffers"`
	Trades         int64  `json:"trades"`
	LastEventSeq   uint64 `json:"lastEventSequence"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Collector gathers health data. Nil dependencies are reported as disconnected.
type Collector struct {
	Rdb    *redis.Client
	DB     DBPinger
	Market MarketCounter
}

// Collect probes every dependency concurrently, each bounded by its own timeout.
func (c *Collector) Collect(ctx context.Context) CollectResult {
	var (
		dbDep, redisDep DepStatus
		traffic         TrafficInfo
		startMs         int64
		market          *MarketInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbDep = c.pingDB(gctx)
		return nil
	})
	g.Go(func() error {
		redisDep, traffic, startMs = c.redisStats(gctx)
		return nil
	})
	if c.Market != nil {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, probeTimeout)
			defer cancel()
			if snap, err := c.Market.Snapshot(pctx); err == nil {
				market = &snap
			}
			return nil
		})
	}
	_ = g.Wait()

	result := CollectResult{
		Runtime:      runtimeInfo(startMs),
		Traffic:      traffic,
		Market:       market,
		Dependencies: map[string]DepStatus{"database": dbDep, "redis": redisDep},
		Status:       "issue",
	}
	if dbDep.Status == StatusConnected && redisDep.Status == StatusConnected {
		result.Status = "ok"
	}
	return result
}

func (c *Collector) pingDB(ctx context.Context) DepStatus {
	if c.DB == nil {
		return DepStatus{Status: StatusDisconnected}
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	start := time.Now()
	if err := c.DB.PingContext(ctx); err != nil {
		return DepStatus{Status: StatusError}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: StatusConnected, PingMs: &ms}
}

// redisStats pings Redis and reads the request counters kept by middleware.HealthMarker.
func (c *Collector) redisStats(ctx context.Context) (DepStatus, TrafficInfo, int64) {
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startMs := time.Now().UnixMilli()
	if c.Rdb == nil {
		return DepStatus{Status: StatusDisconnected}, stats, startMs
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		return DepStatus{Status: StatusError}, stats, startMs
	}
	ms := time.Since(start).Milliseconds()
	dep := DepStatus{Status: StatusConnected, PingMs: &ms}

	vals, err := c.Rdb.MGet(ctx, middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq).Result()
	if err != nil {
		return dep, stats, startMs
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startMs = t
	} else {
		c.Rdb.SetNX(ctx, middleware.KeyStartTime, startMs, 0)
	}
	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if count, _ := strconv.Atoi(str(3)); count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		var lastReq map[string]interface{}
		if json.Unmarshal([]byte(last), &lastReq) == nil {
			stats.LastRequest = lastReq
		}
	}
	return dep, stats, startMs
}

func runtimeInfo(startMs int64) RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	return RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
}

// GormMarketCounter counts rows in the marketplace tables.
type GormMarketCounter struct {
	DB *gorm.DB
}

func (m *GormMarketCounter) Snapshot(ctx context.Context) (MarketInfo, error) {
	var info MarketInfo
	db := m.DB.WithContext(ctx)
	if err := db.Model(&domain.Listing{}).Where("active = ?", true).Count(&info.ActiveListings).Error; err != nil {
		return info, err
	}
	if err := db.Model(&domain.Offer{}).Where("active = ?", true).Count(&info.ActiveOffers).Error; err != nil {
		return info, err
	}
	if err := db.Model(&domain.Trade{}).Count(&info.Trades).Error; err != nil {
		return info, err
	}
	var last domain.MarketEvent
	err := db.Select("sequence").Order("sequence DESC").Limit(1).Find(&last).Error
	info.LastEventSeq = last.Sequence
	return info, err
}
