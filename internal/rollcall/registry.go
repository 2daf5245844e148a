package rollcall

import "sync"

// Registry хранит не более одной переклички на группу.
// Один мьютекс на всю map: под ним только O(1) операции над map/set.
type Registry struct {
	mu       sync.Mutex
	sessions map[GroupID]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[GroupID]*Session),
	}
}

// Start создаёт перекличку, если для группы нет активной.
// Проверка и запись выполняются в одной критической секции.
func (r *Registry) Start(group GroupID, initiator ParticipantID, requested int) (Outcome, error) {
	if requested <= 0 {
		return Outcome{}, ErrInvalidRequestedCount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[group]; ok {
		return Outcome{Kind: KindAlreadyActive}, nil
	}
	r.sessions[group] = newSession(initiator, requested)
	return Outcome{Kind: KindStarted}, nil
}

// Join добавляет участника. Если после добавления набор полный, перекличка
// удаляется тем же вызовом, поэтому завершить её может только один Join.
func (r *Registry) Join(group GroupID, participant ParticipantID) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[group]
	if !ok {
		return Outcome{Kind: KindNoActiveSession}
	}
	if !s.join(participant) {
		return Outcome{Kind: KindAlreadyJoined, Remaining: s.Remaining()}
	}
	if s.IsComplete() {
		delete(r.sessions, group)
		return Outcome{Kind: KindJoined, Remaining: 0, Completed: true}
	}
	return Outcome{Kind: KindJoined, Remaining: s.Remaining()}
}

// Cancel удаляет активную перекличку группы.
func (r *Registry) Cancel(group GroupID) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[group]; !ok {
		return Outcome{Kind: KindNoActiveSession}
	}
	delete(r.sessions, group)
	return Outcome{Kind: KindCancelled}
}

// Status возвращает снимок активной переклички; false: активной нет.
func (r *Registry) Status(group GroupID) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[group]
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

func (r *Registry) HasActive(group GroupID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[group]
	return ok
}

// Active: число групп с активной перекличкой (для метрик).
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
