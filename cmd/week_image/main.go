package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/render"
	"github.com/google/uuid"
)

func main() {
	output := flag.String("o", "test_week.png", "output PNG file")
	flag.Parse()

	now := time.Now()
	weekStart := render.WeekStart(now)

	// Тестовый шаблон: будни 08:00-22:00, выходные 10:00-20:00
	var schedule model.WeeklySchedule
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		schedule[wd] = model.DaySchedule{Enabled: true, Open: model.MustClock("08:00"), Close: model.MustClock("22:00")}
	}
	schedule[time.Saturday] = model.DaySchedule{Enabled: true, Open: model.MustClock("10:00"), Close: model.MustClock("20:00")}
	schedule[time.Sunday] = model.DaySchedule{Enabled: true, Open: model.MustClock("10:00"), Close: model.MustClock("20:00")}

	days := make([]*model.CalendarDay, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, model.NewCalendarDay(1, weekStart.AddDate(0, 0, i), schedule))
	}

	// Понедельник: час утром и полтора вечером
	days[0].Lock(uuid.New(), []model.Clock{model.MustClock("09:00"), model.MustClock("09:30")})
	days[0].Lock(uuid.New(), []model.Clock{model.MustClock("18:00"), model.MustClock("18:30"), model.MustClock("19:00")})

	// Вторник: владелец закрыл обед
	for _, t := range []string{"13:00", "13:30"} {
		if i := days[1].SlotAt(model.MustClock(t)); i >= 0 {
			days[1].Slots[i].Enabled = false
		}
	}

	// Среда закрыта целиком
	days[2].IsClosed = true
	for i := range days[2].Slots {
		days[2].Slots[i].Enabled = false
	}

	// Суббота: плотный вечер
	days[5].Lock(uuid.New(), []model.Clock{model.MustClock("16:00"), model.MustClock("16:30")})
	days[5].Lock(uuid.New(), []model.Clock{model.MustClock("17:00"), model.MustClock("17:30"), model.MustClock("18:00")})

	data, err := render.WeekImage("Корт №1", weekStart, days, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating image: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Image saved to %s (%d bytes)\n", *output, len(data))
}
