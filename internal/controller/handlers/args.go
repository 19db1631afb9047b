package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/pricing"
	"github.com/shopspring/decimal"
)

// parseCommand делит "/book@court_bot 2025-03-10 10:00 1h" на имя и аргументы
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(name), fields[1:]
}

// courtArg берёт ID корта первым аргументом, если он числовой,
// иначе возвращает выбранный пользователем корт
func courtArg(args []string, selected int64, hasSelected bool) (int64, []string, error) {
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			return id, args[1:], nil
		}
	}

	if !hasSelected {
		return 0, args, errNoCourt
	}

	return selected, args, nil
}

// courtArgFixed как courtArg, но ID корта берётся только при лишнем аргументе:
// у команды с want аргументами первый из них тоже может быть числом
func courtArgFixed(args []string, want int, selected int64, hasSelected bool) (int64, []string, error) {
	if len(args) > want {
		return courtArg(args, selected, hasSelected)
	}

	if !hasSelected {
		return 0, args, errNoCourt
	}

	return selected, args, nil
}

// parseHours разбирает "08:00-22:00" или "off"
func parseHours(s string) (model.DaySchedule, error) {
	if strings.EqualFold(s, "off") {
		return model.DaySchedule{Enabled: false}, nil
	}

	open, closeAt, ok := strings.Cut(s, "-")
	if !ok {
		return model.DaySchedule{}, fmt.Errorf("%w: hours must look like 08:00-22:00", model.ErrValidation)
	}

	o, err := model.ParseClock(open)
	if err != nil {
		return model.DaySchedule{}, err
	}
	c, err := model.ParseClock(closeAt)
	if err != nil {
		return model.DaySchedule{}, err
	}

	return model.DaySchedule{Enabled: true, Open: o, Close: c}, nil
}

// parseSwitch разбирает on/off
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "вкл":
		return true, nil
	case "off", "выкл":
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected on or off, got %q", model.ErrValidation, s)
	}
}

// defaultSchedule шаблон нового корта: каждый день 08:00-22:00
func defaultSchedule() model.WeeklySchedule {
	var schedule model.WeeklySchedule
	for i := range schedule {
		schedule[i] = model.DaySchedule{
			Enabled: true,
			Open:    model.MustClock("08:00"),
			Close:   model.MustClock("22:00"),
		}
	}
	return schedule
}

// parseRate разбирает цену часа нового корта в правила цены.
// "-" оставляет цену по умолчанию, запятая допускается вместо точки.
func parseRate(s string) (json.RawMessage, error) {
	s = strings.TrimSpace(s)
	if s == "-" {
		return nil, nil
	}

	rate, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil || rate.IsNegative() {
		return nil, fmt.Errorf("%w: rate %q", errUsage, s)
	}

	return json.Marshal(pricing.Rules{HourlyRate: rate})
}
