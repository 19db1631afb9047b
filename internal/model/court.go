package model

import (
	"encoding/json"
	"time"
)

// Court бронируемый корт площадки
type Court struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"owner_id"`
	Name           string          `json:"name"`
	WeeklySchedule WeeklySchedule  `json:"weekly_schedule"`
	PricingRules   json.RawMessage `json:"pricing_rules"` // непрозрачно для ядра, читает PriceCalculator
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsOwnedBy проверяет владельца корта
func (c *Court) IsOwnedBy(caller Caller) bool {
	return caller.UserID != 0 && c.OwnerID == caller.UserID
}
