package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cokefish9527/clipper/queue"
	"github.com/Cokefish9527/clipper/utils"
)

type fakePool struct{}

func (fakePool) Stats() *utils.PoolStats {
	return &utils.PoolStats{Workers: 2, BusyWorkers: 1, TaskQueueSize: 16}
}

func TestGetSystemStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := queue.NewInMemoryJobStore(10)
	require.NoError(t, store.Add(&queue.JobRecord{ID: "1", Status: queue.JobStatusProcessing, Created: time.Now()}))
	require.NoError(t, store.Add(&queue.JobRecord{ID: "2", Status: queue.JobStatusError, Created: time.Now()}))

	monitor := NewMonitorAPI(store, fakePool{}, t.TempDir())
	monitor.cpuInterval = 0
	router := gin.New()
	router.GET("/stats", monitor.GetSystemStats)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats SystemStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.NotNil(t, stats.Pool)
	assert.Equal(t, 2, stats.Pool.Workers)
	assert.Equal(t, int32(1), stats.Pool.BusyWorkers)
	assert.Equal(t, 2, stats.Jobs.Total)
	assert.Equal(t, 1, stats.Jobs.Processing)
	assert.Equal(t, 1, stats.Jobs.Failed)
	assert.Greater(t, stats.Goroutines, 0)
}

func TestCountJobs(t *testing.T) {
	stats := countJobs([]*queue.JobRecord{
		{Status: queue.JobStatusQueued},
		{Status: queue.JobStatusCompleted},
		{Status: queue.JobStatusCompleted},
		{Status: queue.JobStatusError},
	})
	assert.Equal(t, JobStats{Total: 4, Queued: 1, Completed: 2, Failed: 1}, stats)
}
