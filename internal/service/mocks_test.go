package service

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/noah-isme/enrollments-service/internal/client"
	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/repository"
)

type mockStudentClient struct {
	mu      sync.Mutex
	records map[string]models.StudentRecord
	errs    map[string]error
	calls   []string
	rows    []int
}

func (m *mockStudentClient) FetchByID(ctx context.Context, id string) (models.StudentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	if err, ok := m.errs[id]; ok {
		return models.StudentRecord{}, err
	}
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return models.StudentRecord{}, &client.RemoteError{Kind: client.KindNotFound, Entity: "student", ID: id, Status: 404}
}

func (m *mockStudentClient) FetchByRow(ctx context.Context, row int) (models.StudentRecord, error) {
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return models.StudentRecord{}, err
	}
	return models.StudentRecord{StudentID: "row-" + strconv.Itoa(row)}, nil
}

type mockCourseClient struct {
	records map[string]models.CourseRecord
	errs    map[string]error
	calls   []string
	onFetch func()
}

func (m *mockCourseClient) FetchByID(ctx context.Context, id string) (models.CourseRecord, error) {
	m.calls = append(m.calls, id)
	if m.onFetch != nil {
		m.onFetch()
	}
	if err, ok := m.errs[id]; ok {
		return models.CourseRecord{}, err
	}
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return models.CourseRecord{}, &client.RemoteError{Kind: client.KindNotFound, Entity: "course", ID: id, Status: 404}
}

type memoryStore struct {
	items   map[string]models.Enrollment
	saves   int
	finds   int
	saveErr error
	findErr error
	seq     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]models.Enrollment)}
}

func (m *memoryStore) Save(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	m.saves++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	saved := *e
	if saved.ID == "" {
		m.seq++
		saved.ID = "internal-" + strconv.Itoa(m.seq)
	}
	m.items[saved.ID] = saved
	return &saved, nil
}

func (m *memoryStore) FindByEnrollmentID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, e := range m.items {
		if e.EnrollmentID == id {
			found := e
			return &found, nil
		}
	}
	return nil, repository.ErrEnrollmentNotFound
}

func (m *memoryStore) Delete(ctx context.Context, e models.Enrollment) error {
	if _, ok := m.items[e.ID]; !ok {
		return repository.ErrEnrollmentNotFound
	}
	delete(m.items, e.ID)
	return nil
}

func (m *memoryStore) FindAll(ctx context.Context, fn func(models.Enrollment) error) error {
	if m.findErr != nil {
		return m.findErr
	}
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(m.items[k]); err != nil {
			return err
		}
	}
	return nil
}

type mockCache struct {
	items       map[string]models.Enrollment
	versions    map[string]int64
	hits        int
	rejected    int
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string]models.Enrollment), versions: make(map[string]int64)}
}

func (m *mockCache) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, bool) {
	e, ok := m.items[id]
	if ok {
		m.hits++
		return &e, true
	}
	return nil, false
}

func (m *mockCache) EnrollmentVersion(ctx context.Context, id string) (int64, bool) {
	return m.versions[id], true
}

func (m *mockCache) PutEnrollment(ctx context.Context, e models.Enrollment, version int64) {
	if m.versions[e.EnrollmentID] != version {
		m.rejected++
		return
	}
	m.items[e.EnrollmentID] = e
}

func (m *mockCache) InvalidateEnrollment(ctx context.Context, id string) {
	m.invalidated = append(m.invalidated, id)
	m.versions[id]++
	delete(m.items, id)
}

// interleavingStore runs afterFind once, between a lookup reading the store
// and the lookup returning.
type interleavingStore struct {
	*memoryStore
	afterFind func()
}

func (s *interleavingStore) FindByEnrollmentID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, err := s.memoryStore.FindByEnrollmentID(ctx, id)
	if hook := s.afterFind; hook != nil {
		s.afterFind = nil
		hook()
	}
	return e, err
}
