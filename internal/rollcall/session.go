package rollcall

// GroupID: непрозрачный идентификатор группы (гильдии/сервера).
type GroupID string

// ParticipantID: непрозрачный идентификатор участника.
type ParticipantID string

// Session: одна активная перекличка группы.
// initiator и requested не меняются после создания, joined только растёт.
type Session struct {
	initiator ParticipantID
	requested int
	joined    map[ParticipantID]struct{}
}

func newSession(initiator ParticipantID, requested int) *Session {
	return &Session{
		initiator: initiator,
		requested: requested,
		joined:    make(map[ParticipantID]struct{}, requested),
	}
}

func (s *Session) Initiator() ParticipantID { return s.initiator }

func (s *Session) Requested() int { return s.requested }

// Remaining: сколько участников ещё не хватает (никогда не хранится).
func (s *Session) Remaining() int {
	if r := s.requested - len(s.joined); r > 0 {
		return r
	}
	return 0
}

func (s *Session) IsComplete() bool {
	return len(s.joined) >= s.requested
}

func (s *Session) HasJoined(p ParticipantID) bool {
	_, ok := s.joined[p]
	return ok
}

// join вызывается только реестром под его мьютексом.
// Возвращает false, если участник уже в списке.
func (s *Session) join(p ParticipantID) bool {
	if s.HasJoined(p) {
		return false
	}
	s.joined[p] = struct{}{}
	return true
}

// Snapshot: копия состояния переклички только для чтения.
type Snapshot struct {
	Initiator ParticipantID
	Requested int
	// порядок не определён
	Joined    []ParticipantID
	Remaining int
}

func (s *Session) snapshot() Snapshot {
	joined := make([]ParticipantID, 0, len(s.joined))
	for p := range s.joined {
		joined = append(joined, p)
	}
	return Snapshot{
		Initiator: s.initiator,
		Requested: s.requested,
		Joined:    joined,
		Remaining: s.Remaining(),
	}
}
