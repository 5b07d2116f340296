package cartstore

import "sync"

// MemoryStorage keeps the serialized cart in process memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStorage(initial []byte) *MemoryStorage {
	return &MemoryStorage{data: initial}
}

func (m *MemoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// Messages collects notifications so a request handler can return them to the shopper.
type Messages struct {
	items []string
}

func (m *Messages) Notify(message string) {
	m.items = append(m.items, message)
}

func (m *Messages) All() []string {
	return append([]string(nil), m.items...)
}
