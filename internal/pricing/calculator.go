package pricing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/shopspring/decimal"
)

// Rules правила цены корта, хранятся в courts.pricing_rules
type Rules struct {
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	Peaks      []PeakRule      `json:"peaks,omitempty"`
}

// PeakRule особая ставка в дни недели weekdays на полуинтервале [from, to)
type PeakRule struct {
	Weekdays   []int           `json:"weekdays"` // 0 = Sunday, 6 = Saturday
	From       model.Clock     `json:"from"`
	To         model.Clock     `json:"to"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

func (p PeakRule) matches(weekday time.Weekday, at model.Clock) bool {
	if at < p.From || at >= p.To {
		return false
	}
	for _, d := range p.Weekdays {
		if time.Weekday(d) == weekday {
			return true
		}
	}
	return false
}

// RuleCalculator считает цену по получасам: каждый получас по ставке
// первого подходящего пикового правила или по базовой
type RuleCalculator struct {
	defaultRate decimal.Decimal
}

// NewRuleCalculator defaultRate используется, если у корта нет базовой ставки
func NewRuleCalculator(defaultRate decimal.Decimal) *RuleCalculator {
	return &RuleCalculator{defaultRate: defaultRate}
}

func (c *RuleCalculator) Calculate(raw json.RawMessage, date time.Time, start model.Clock, duration model.Duration) (decimal.Decimal, error) {
	rules, err := c.parse(raw)
	if err != nil {
		return decimal.Zero, err
	}

	half := decimal.NewFromInt(2)
	total := decimal.Zero
	for i := 0; i < duration.Slots(); i++ {
		at := start.Add(i * model.SlotMinutes)
		rate := rules.HourlyRate
		for _, p := range rules.Peaks {
			if p.matches(date.Weekday(), at) {
				rate = p.HourlyRate
				break
			}
		}
		total = total.Add(rate.Div(half))
	}

	return total.Round(2), nil
}

func (c *RuleCalculator) parse(raw json.RawMessage) (Rules, error) {
	rules := Rules{HourlyRate: c.defaultRate}
	if len(raw) == 0 {
		return rules, nil
	}
	if err := json.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse pricing rules: %w", err)
	}
	if rules.HourlyRate.IsZero() {
		rules.HourlyRate = c.defaultRate
	}
	if rules.HourlyRate.IsNegative() {
		return Rules{}, fmt.Errorf("%w: negative hourly rate", model.ErrValidation)
	}
	return rules, nil
}
