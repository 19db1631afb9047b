package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	LanguageCode string    `json:"language_code"`
	IsOwner      bool      `json:"is_owner"` // Владелец площадки, может публиковать корты
	CreatedAt    time.Time `json:"created_at"`
}

// Role роль вызывающего, приходит от сервиса аутентификации
type Role string

const (
	RolePlayer Role = "player"
	RoleOwner  Role = "owner"
)

// Caller идентичность вызывающего
type Caller struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// CallerOf строит идентичность из пользователя
func CallerOf(u *User) Caller {
	role := RolePlayer
	if u.IsOwner {
		role = RoleOwner
	}
	return Caller{UserID: u.ID, Role: role}
}
