package engine

import "sync"

const defaultDedupLimit = 10000

// ProcessedOrderSet хранит идентификаторы уже обработанных ордеров.
// При переполнении набор сбрасывается целиком: порядок вытеснения
// не важен, важна только проверка членства.
type ProcessedOrderSet struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	limit int
}

func NewProcessedOrderSet(limit int) *ProcessedOrderSet {
	if limit <= 0 {
		limit = defaultDedupLimit
	}
	return &ProcessedOrderSet{
		ids:   make(map[string]struct{}),
		limit: limit,
	}
}

// MarkIfNew регистрирует идентификатор и сообщает, встречался ли он раньше.
// Возвращает true, если идентификатор новый.
func (s *ProcessedOrderSet) MarkIfNew(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.ids[orderID]; seen {
		return false
	}
	if len(s.ids) >= s.limit {
		s.ids = make(map[string]struct{})
	}
	s.ids[orderID] = struct{}{}
	return true
}

func (s *ProcessedOrderSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *ProcessedOrderSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}
