package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Cokefish9527/clipper/queue"
	"github.com/Cokefish9527/clipper/utils"
)

// PoolStatser 提供工作池统计
type PoolStatser interface {
	Stats() *utils.PoolStats
}

// MonitorAPI 监控API结构体
type MonitorAPI struct {
	store       queue.JobStore
	pool        PoolStatser
	downloadDir string
	cpuInterval time.Duration
}

// NewMonitorAPI 创建新的监控API实例
func NewMonitorAPI(store queue.JobStore, pool PoolStatser, downloadDir string) *MonitorAPI {
	return &MonitorAPI{
		store:       store,
		pool:        pool,
		downloadDir: downloadDir,
		cpuInterval: 200 * time.Millisecond,
	}
}

// SystemStats 系统统计信息
type SystemStats struct {
	Timestamp   time.Time        `json:"timestamp"`
	CPUUsage    float64          `json:"cpuUsage"`
	MemoryUsage float64          `json:"memoryUsage"`
	MemoryTotal uint64           `json:"memoryTotal"`
	MemoryUsed  uint64           `json:"memoryUsed"`
	DiskUsage   float64          `json:"diskUsage"`
	DiskTotal   uint64           `json:"diskTotal"`
	DiskUsed    uint64           `json:"diskUsed"`
	Goroutines  int              `json:"goroutines"`
	Pool        *utils.PoolStats `json:"pool,omitempty"`
	Jobs        JobStats         `json:"jobs"`
}

// JobStats 任务统计信息
type JobStats struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// GetSystemStats 获取系统统计信息
// @Summary 系统与工作池统计
// @Tags monitor
// @Produce json
// @Success 200 {object} SystemStats
// @Router /api/v1/monitor/stats [get]
func (m *MonitorAPI) GetSystemStats(c *gin.Context) {
	utils.Debug("收到系统统计信息请求", map[string]string{"clientIP": c.ClientIP()})

	cpuUsage := 0.0
	if cpuPercent, err := cpu.Percent(m.cpuInterval, false); err != nil {
		utils.Warn("获取CPU使用率失败", map[string]string{"error": err.Error()})
	} else if len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		utils.Warn("获取内存信息失败", map[string]string{"error": err.Error()})
		memInfo = &mem.VirtualMemoryStat{}
	}

	// 统计下载目录所在磁盘
	diskPath := m.downloadDir
	if diskPath == "" {
		diskPath = "."
	}
	diskInfo, err := disk.Usage(diskPath)
	if err != nil {
		utils.Warn("获取磁盘信息失败", map[string]string{"path": diskPath, "error": err.Error()})
		diskInfo = &disk.UsageStat{}
	}

	stats := &SystemStats{
		Timestamp:   time.Now(),
		CPUUsage:    cpuUsage,
		MemoryUsage: memInfo.UsedPercent,
		MemoryTotal: memInfo.Total,
		MemoryUsed:  memInfo.Used,
		DiskUsage:   diskInfo.UsedPercent,
		DiskTotal:   diskInfo.Total,
		DiskUsed:    diskInfo.Used,
		Goroutines:  runtime.NumGoroutine(),
	}
	if m.pool != nil {
		stats.Pool = m.pool.Stats()
	}
	if records, err := m.listRecords(); err == nil {
		stats.Jobs = countJobs(records)
	}

	c.JSON(http.StatusOK, stats)
}

// ListJobs 获取最近的任务记录
// @Summary 最近任务列表
// @Tags monitor
// @Produce json
// @Param status query string false "按状态筛选 queued/processing/completed/error"
// @Success 200 {array} queue.JobRecord
// @Failure 500 {object} map[string]string
// @Router /api/v1/jobs [get]
func (m *MonitorAPI) ListJobs(c *gin.Context) {
	records, err := m.listRecords()
	if err != nil {
		utils.Error("获取任务列表失败", map[string]string{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job list",
		})
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := make([]*queue.JobRecord, 0, len(records))
		for _, record := range records {
			if record.Status == status {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	c.JSON(http.StatusOK, records)
}

// GetJob 获取任务详情
// @Summary 任务详情
// @Tags monitor
// @Produce json
// @Param id path string true "请求ID"
// @Success 200 {object} queue.JobRecord
// @Failure 404 {object} map[string]string
// @Router /api/v1/jobs/{id} [get]
func (m *MonitorAPI) GetJob(c *gin.Context) {
	id := c.Param("id")

	if m.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	record, err := m.store.Get(id)
	if err != nil {
		utils.Error("获取任务详情失败", map[string]string{"id": id, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job detail",
		})
		return
	}
	if record == nil {
		utils.Debug("任务不存在", map[string]string{"id": id})
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (m *MonitorAPI) listRecords() ([]*queue.JobRecord, error) {
	if m.store == nil {
		return []*queue.JobRecord{}, nil
	}
	return m.store.List()
}

func countJobs(records []*queue.JobRecord) JobStats {
	stats := JobStats{Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case queue.JobStatusQueued:
			stats.Queued++
		case queue.JobStatusProcessing:
			stats.Processing++
		case queue.JobStatusCompleted:
			stats.Completed++
		case queue.JobStatusError:
			stats.Failed++
		}
	}
	return stats
}
