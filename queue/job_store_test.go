package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryJobStore_AddAndGet(t *testing.T) {
	store := NewInMemoryJobStore(10)

	record := &JobRecord{
		ID:      "req-1",
		JobID:   "job42",
		FileURL: "https://example.com/a.mp4",
		Status:  JobStatusQueued,
		Created: time.Now(),
	}
	require.NoError(t, store.Add(record))

	got, err := store.Get("req-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "job42", got.JobID)
	assert.Equal(t, JobStatusQueued, got.Status)
	assert.False(t, got.Done())
}

func TestInMemoryJobStore_GetNonExistent(t *testing.T) {
	store := NewInMemoryJobStore(10)

	got, err := store.Get("missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryJobStore_ReturnsCopies(t *testing.T) {
	store := NewInMemoryJobStore(10)
	record := &JobRecord{ID: "req-1", Status: JobStatusCompleted, Links: []string{"a"}}
	require.NoError(t, store.Add(record))

	// 修改原对象不影响存储内容
	record.Links[0] = "changed"
	record.Status = JobStatusError

	got, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, []string{"a"}, got.Links)

	got.Links[0] = "mutated"
	again, _ := store.Get("req-1")
	assert.Equal(t, "a", again.Links[0])
}

func TestInMemoryJobStore_ListNewestFirst(t *testing.T) {
	store := NewInMemoryJobStore(0)
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Add(&JobRecord{
			ID:      fmt.Sprintf("req-%d", i),
			Status:  JobStatusQueued,
			Created: base.Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "req-2", records[0].ID)
	assert.Equal(t, "req-1", records[1].ID)
	assert.Equal(t, "req-0", records[2].ID)
}

func TestInMemoryJobStore_Update(t *testing.T) {
	store := NewInMemoryJobStore(10)
	record := &JobRecord{ID: "req-1", Status: JobStatusQueued}
	require.NoError(t, store.Add(record))

	record.Status = JobStatusError
	record.ErrorKind = "download"
	record.Finished = time.Now()
	require.NoError(t, store.Update(record))

	got, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, JobStatusError, got.Status)
	assert.Equal(t, "download", got.ErrorKind)
	assert.True(t, got.Done())
}

func TestInMemoryJobStore_EvictsOldestFinished(t *testing.T) {
	store := NewInMemoryJobStore(2)
	base := time.Now()

	// 未结束的记录不会被淘汰
	require.NoError(t, store.Add(&JobRecord{ID: "running", Status: JobStatusProcessing, Created: base}))
	require.NoError(t, store.Add(&JobRecord{ID: "old", Status: JobStatusCompleted, Created: base, Finished: base.Add(time.Second)}))
	require.NoError(t, store.Add(&JobRecord{ID: "new", Status: JobStatusCompleted, Created: base, Finished: base.Add(2 * time.Second)}))

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	old, _ := store.Get("old")
	assert.Nil(t, old)
	running, _ := store.Get("running")
	assert.NotNil(t, running)
	newest, _ := store.Get("new")
	assert.NotNil(t, newest)
}
