package formatting

import (
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDateWithWeekday форматирует дату с днём недели
func FormatDateWithWeekday(t time.Time) string {
	return t.Format("02.01.2006") + " (" + WeekdayShort(t.Weekday()) + ")"
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end model.Clock) string {
	return start.String() + "–" + end.String()
}

// WeekdayShort короткие дни недели
func WeekdayShort(weekday time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[weekday]
}

// MonthName название месяца в именительном падеже
func MonthName(month time.Month) string {
	return [...]string{"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}[month]
}
