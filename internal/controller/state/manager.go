package state

import (
	"sync"
)

// Manager хранит сессии пользователей в памяти процесса
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session // telegramID -> Session
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
	}
}

// session возвращает сессию, создавая её при необходимости. Вызывать под mu.
func (sm *Manager) session(telegramID int64) *Session {
	s, ok := sm.sessions[telegramID]
	if !ok {
		s = &Session{Draft: make(map[string]any)}
		sm.sessions[telegramID] = s
	}
	return s
}

// GetState текущий шаг диалога
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if s, ok := sm.sessions[telegramID]; ok {
		return s.State
	}
	return StateNone
}

// SetState переводит диалог на шаг state, черновик не трогает
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		if s, ok := sm.sessions[telegramID]; ok {
			s.State = StateNone
		}
		return
	}

	sm.session(telegramID).State = state
}

// GetData значение из черновика диалога
func (sm *Manager) GetData(telegramID int64, key string) (any, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, ok := sm.sessions[telegramID]
	if !ok {
		return nil, false
	}
	value, ok := s.Draft[key]
	return value, ok
}

// SetData кладёт значение в черновик диалога
func (sm *Manager) SetData(telegramID int64, key string, value any) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.session(telegramID).Draft[key] = value
}

// ClearState сбрасывает диалог. Выбранный корт переживает сброс.
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[telegramID]
	if !ok {
		return
	}

	if s.CourtID == 0 {
		delete(sm.sessions, telegramID)
		return
	}

	s.State = StateNone
	s.Draft = make(map[string]any)
}

// SelectCourt запоминает корт для команд без явного ID
func (sm *Manager) SelectCourt(telegramID, courtID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.session(telegramID).CourtID = courtID
}

// SelectedCourt выбранный корт пользователя
func (sm *Manager) SelectedCourt(telegramID int64) (int64, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, ok := sm.sessions[telegramID]
	if !ok || s.CourtID == 0 {
		return 0, false
	}
	return s.CourtID, true
}
