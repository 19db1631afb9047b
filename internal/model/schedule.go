package model

import (
	"fmt"
	"time"
)

// DaySchedule часы работы корта в один день недели
type DaySchedule struct {
	Enabled bool  `json:"enabled"`
	Open    Clock `json:"open"`
	Close   Clock `json:"close"`
}

// Validate проверяет инвариант: если день включён, open < close и оба на сетке
func (d DaySchedule) Validate() error {
	if !d.Enabled {
		return nil
	}
	if !d.Open.Aligned() || !d.Close.Aligned() {
		return fmt.Errorf("%w: open %s and close %s must be 30-minute aligned", ErrInvalidSchedule, d.Open, d.Close)
	}
	if d.Open >= d.Close {
		return fmt.Errorf("%w: open %s must be before close %s", ErrInvalidSchedule, d.Open, d.Close)
	}
	if d.Open >= EndOfDay {
		return fmt.Errorf("%w: open %s is out of range", ErrInvalidSchedule, d.Open)
	}
	return nil
}

// WeeklySchedule шаблон на неделю, индекс = time.Weekday (0 = Sunday, 6 = Saturday)
type WeeklySchedule [7]DaySchedule

// Day возвращает расписание для дня недели даты
func (w WeeklySchedule) Day(date time.Time) DaySchedule {
	return w[date.Weekday()]
}

// Validate проверяет все семь дней
func (w WeeklySchedule) Validate() error {
	for i, d := range w {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", time.Weekday(i), err)
		}
	}
	return nil
}

// ParseWeekday проверяет номер дня недели
func ParseWeekday(n int) (time.Weekday, error) {
	if n < 0 || n > 6 {
		return 0, ErrInvalidWeekday
	}
	return time.Weekday(n), nil
}
