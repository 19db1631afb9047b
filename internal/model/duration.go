package model

// Duration длительность бронирования
type Duration string

const (
	DurationHour         Duration = "1h"
	DurationHourAndAHalf Duration = "1.5h"
)

// ParseDuration принимает только две разрешённые длительности
func ParseDuration(s string) (Duration, error) {
	switch d := Duration(s); d {
	case DurationHour, DurationHourAndAHalf:
		return d, nil
	default:
		return "", ErrInvalidDuration
	}
}

// Minutes длительность в минутах
func (d Duration) Minutes() int {
	switch d {
	case DurationHour:
		return 60
	case DurationHourAndAHalf:
		return 90
	default:
		return 0
	}
}

// Slots количество получасовых слотов
func (d Duration) Slots() int {
	return d.Minutes() / SlotMinutes
}
