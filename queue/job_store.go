package queue

import (
	"sort"
	"sync"
	"time"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusError      = "error"
)

// JobRecord 一次处理请求的记录，只保存在内存中
type JobRecord struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	FileURL   string    `json:"fileUrl"`
	Status    string    `json:"status"`
	ErrorKind string    `json:"errorKind,omitempty"`
	Error     string    `json:"error,omitempty"`
	ClipCount int       `json:"clipCount"`
	Links     []string  `json:"links,omitempty"`
	Created   time.Time `json:"created"`
	Started   time.Time `json:"started,omitempty"`
	Finished  time.Time `json:"finished,omitempty"`
}

// Done 是否已结束
func (r *JobRecord) Done() bool {
	return r.Status == JobStatusCompleted || r.Status == JobStatusError
}

// JobStore 任务记录存储接口
type JobStore interface {
	Add(record *JobRecord) error
	Get(id string) (*JobRecord, error)
	List() ([]*JobRecord, error)
	Update(record *JobRecord) error
}

// InMemoryJobStore 内存任务记录，超过容量时淘汰最早结束的记录
type InMemoryJobStore struct {
	records  map[string]*JobRecord
	capacity int
	mutex    sync.RWMutex
}

// NewInMemoryJobStore 创建内存任务记录存储，capacity<=0 表示不限制
func NewInMemoryJobStore(capacity int) *InMemoryJobStore {
	return &InMemoryJobStore{
		records:  make(map[string]*JobRecord),
		capacity: capacity,
	}
}

// Add 添加记录
func (s *InMemoryJobStore) Add(record *JobRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[record.ID] = copyRecord(record)
	s.evict()
	return nil
}

// Get 根据ID获取记录，不存在时返回 nil, nil
func (s *InMemoryJobStore) Get(id string) (*JobRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, nil
	}
	return copyRecord(record), nil
}

// List 按创建时间倒序返回所有记录
func (s *InMemoryJobStore) List() ([]*JobRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*JobRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, copyRecord(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Created.After(records[j].Created)
	})
	return records, nil
}

// Update 更新记录
func (s *InMemoryJobStore) Update(record *JobRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[record.ID] = copyRecord(record)
	s.evict()
	return nil
}

// evict 未结束的记录不会被淘汰
func (s *InMemoryJobStore) evict() {
	if s.capacity <= 0 || len(s.records) <= s.capacity {
		return
	}

	finished := make([]*JobRecord, 0, len(s.records))
	for _, record := range s.records {
		if record.Done() {
			finished = append(finished, record)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].Finished.Before(finished[j].Finished)
	})

	for _, record := range finished {
		if len(s.records) <= s.capacity {
			return
		}
		delete(s.records, record.ID)
	}
}

func copyRecord(record *JobRecord) *JobRecord {
	c := *record
	if record.Links != nil {
		c.Links = append([]string(nil), record.Links...)
	}
	return &c
}
