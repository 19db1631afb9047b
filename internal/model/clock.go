package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SlotMinutes шаг сетки слотов
const SlotMinutes = 30

// DateLayout формат даты в API и в командах бота
const DateLayout = "2006-01-02"

// Clock время суток в минутах от полуночи, сериализуется как "HH:MM"
type Clock int

// EndOfDay граница "24:00", допустима только как время закрытия
const EndOfDay Clock = 24 * 60

// ParseClock разбирает строку "HH:MM"
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrValidation, s)
	}

	hour, ok := twoDigits(parts[0])
	if !ok {
		return 0, fmt.Errorf("%w: time %q has bad hour", ErrValidation, s)
	}
	minute, ok := twoDigits(parts[1])
	if !ok {
		return 0, fmt.Errorf("%w: time %q has bad minute", ErrValidation, s)
	}

	c := Clock(hour*60 + minute)
	if minute > 59 || c > EndOfDay {
		return 0, fmt.Errorf("%w: time %q is out of range", ErrValidation, s)
	}

	return c, nil
}

// twoDigits разбирает ровно две цифры, без знака и пробелов
func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// MustClock для констант и тестов
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add сдвигает время на минуты, переполнение часа переносится
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// Aligned проверяет попадание на 30-минутную сетку
func (c Clock) Aligned() bool {
	return int(c)%SlotMinutes == 0
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = 0
		return nil
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DateOf приводит момент времени к календарной дате (полночь UTC)
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает "YYYY-MM-DD"
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return d, nil
}

// ParseMonth разбирает "YYYY-MM" и возвращает первый день месяца
func ParseMonth(s string) (time.Time, error) {
	m, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q must be YYYY-MM", ErrValidation, s)
	}
	return m, nil
}

// At возвращает момент начала времени c в дате date в часовом поясе loc
func At(date time.Time, c Clock, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, int(c), 0, 0, loc)
}
