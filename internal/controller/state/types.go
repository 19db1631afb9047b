package state

// UserState шаг диалога, в котором находится пользователь
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Создание корта: бот ждёт название, затем цену часа
	StateCreateCourtName UserState = "create_court_name"
	StateCreateCourtRate UserState = "create_court_rate"
)

// Ключи черновика диалога
const (
	DraftCourtName = "court_name"
)

// Session всё, что бот помнит о пользователе между сообщениями.
// Выбранный корт живёт дольше диалога, черновик - только до его конца.
type Session struct {
	State   UserState
	CourtID int64          // 0 - корт не выбран
	Draft   map[string]any // Данные текущего диалога
}
