package handler

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/response"
)

const metricsInterval = 5 * time.Second

// SystemHandler streams host and process health to the admin dashboard over
// SSE, including the depth of the two worker queues.
type SystemHandler struct {
	rdb      *redis.Client
	bootTime time.Time
	log      zerolog.Logger

	// previous /proc/stat sample, for CPU usage deltas between ticks
	lastIdle  uint64
	lastBusy  uint64
	lastTotal uint64
}

func NewSystemHandler(rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	h := &SystemHandler{
		rdb:      rdb,
		bootTime: time.Now(),
		log:      log.With().Str("component", "system_handler").Logger(),
	}
	h.lastIdle, h.lastTotal, _ = sampleCPU()
	return h
}

type hostMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	CPUPercent  float64 `json:"cpu_percent"`
	MemUsed     uint64  `json:"mem_used_bytes"`
	MemTotal    uint64  `json:"mem_total_bytes"`
	MemPercent  float64 `json:"mem_percent"`
	DiskUsed    uint64  `json:"disk_used_bytes"`
	DiskTotal   uint64  `json:"disk_total_bytes"`
	DiskPercent float64 `json:"disk_percent"`
	Load1       float64 `json:"load_1"`
	Load5       float64 `json:"load_5"`
	Load15      float64 `json:"load_15"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`
	RSS        uint64 `json:"rss_bytes"`
	GCCycles   uint32 `json:"gc_cycles"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// backlog of the autosave and grading pipelines
	AnswerQueueDepth int64 `json:"answer_queue_depth"`
	ScoreQueueDepth  int64 `json:"score_queue_depth"`
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
// Pushes a metrics snapshot on connect and then every few seconds.
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	if middleware.GetClaims(c) == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("admin attached to system metrics stream")
	defer h.log.Info().Msg("admin detached from system metrics stream")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.push(c)
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			h.push(c)
		}
	}
}

func (h *SystemHandler) push(c *gin.Context) {
	c.SSEvent("metrics", h.snapshot())
	c.Writer.Flush()
}

func (h *SystemHandler) snapshot() hostMetrics {
	m := hostMetrics{
		Timestamp: time.Now().Unix(),
		Uptime:    humanDuration(time.Since(h.bootTime)),
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
	}

	if idle, total, err := sampleCPU(); err == nil && total > h.lastTotal {
		idleDelta := float64(idle - h.lastIdle)
		totalDelta := float64(total - h.lastTotal)
		m.CPUPercent = (1 - idleDelta/totalDelta) * 100
		h.lastIdle, h.lastTotal = idle, total
	}

	if total, avail, err := sampleMemory(); err == nil && total > 0 {
		m.MemTotal = total
		m.MemUsed = total - avail
		m.MemPercent = float64(m.MemUsed) / float64(total) * 100
	}

	var fs syscall.Statfs_t
	if err := syscall.Statfs("/", &fs); err == nil {
		m.DiskTotal = fs.Blocks * uint64(fs.Bsize)
		m.DiskUsed = m.DiskTotal - fs.Bavail*uint64(fs.Bsize)
		if m.DiskTotal > 0 {
			m.DiskPercent = float64(m.DiskUsed) / float64(m.DiskTotal) * 100
		}
	}

	m.Load1, m.Load5, m.Load15 = sampleLoad()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.GCCycles = ms.NumGC
	m.RSS = sampleRSS()

	ctx := context.Background()
	pipe := h.rdb.Pipeline()
	answers := pipe.LLen(ctx, config.WorkerKey.PersistAnswersQueue)
	scores := pipe.LLen(ctx, config.WorkerKey.PersistScoresQueue)
	if _, err := pipe.Exec(ctx); err == nil {
		m.AnswerQueueDepth = answers.Val()
		m.ScoreQueueDepth = scores.Val()
	}

	return m
}

// sampleCPU reads the aggregate line of /proc/stat and returns idle and total
// jiffies since boot.
func sampleCPU() (idle, total uint64, err error) {
	raw, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(strings.SplitN(string(raw), "\n", 2)[0])
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, 0, fmt.Errorf("malformed /proc/stat")
	}
	for i, f := range fields[1:] {
		v, _ := strconv.ParseUint(f, 10, 64)
		total += v
		if i == 3 { // the idle column
			idle = v
		}
	}
	return idle, total, nil
}

// sampleMemory returns MemTotal and MemAvailable from /proc/meminfo, in bytes.
func sampleMemory() (total, available uint64, err error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() && (total == 0 || available == 0) {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			total = kbLineToBytes(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			available = kbLineToBytes(line)
		}
	}
	return total, available, nil
}

// kbLineToBytes parses a "Key:   12345 kB" procfs line.
func kbLineToBytes(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, _ := strconv.ParseUint(fields[1], 10, 64)
	return v * 1024
}

func sampleLoad() (l1, l5, l15 float64) {
	raw, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0, 0, 0
	}
	fields := strings.Fields(string(raw))
	if len(fields) < 3 {
		return 0, 0, 0
	}
	l1, _ = strconv.ParseFloat(fields[0], 64)
	l5, _ = strconv.ParseFloat(fields[1], 64)
	l15, _ = strconv.ParseFloat(fields[2], 64)
	return l1, l5, l15
}

// sampleRSS reads this process's resident set size from /proc/self/status.
func sampleRSS() uint64 {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "VmRSS:") {
			return kbLineToBytes(line)
		}
	}
	return 0
}

func humanDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	default:
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
}
