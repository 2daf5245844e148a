package rollcall

import "errors"

// ErrInvalidRequestedCount: запрошенное число участников не положительное.
var ErrInvalidRequestedCount = errors.New("rollcall: requested count must be a positive integer")

// Kind: вид результата операции реестра.
type Kind int

const (
	KindStarted Kind = iota + 1
	KindAlreadyActive
	KindJoined
	KindAlreadyJoined
	KindCancelled
	KindNoActiveSession
)

func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindAlreadyActive:
		return "already_active"
	case KindJoined:
		return "joined"
	case KindAlreadyJoined:
		return "already_joined"
	case KindCancelled:
		return "cancelled"
	case KindNoActiveSession:
		return "no_active_session"
	default:
		return "unknown"
	}
}

// Outcome: результат Start/Join/Cancel.
// Remaining заполняется для KindJoined и KindAlreadyJoined.
// Completed == true ровно у того Join, который завершил перекличку.
type Outcome struct {
	Kind      Kind
	Remaining int
	Completed bool
}

// Mutated: изменила ли операция состояние реестра.
func (o Outcome) Mutated() bool {
	switch o.Kind {
	case KindStarted, KindJoined, KindCancelled:
		return true
	}
	return false
}
