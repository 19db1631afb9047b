package render

import (
	"bytes"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	slotBorderRadius = 5.0
	shadowOffset     = 2.0
	totalDaysInWeek  = 7
	defaultMinHour   = 8
	defaultMaxHour   = 22
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 14.0
	legendItemFontSize = 13.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	closedDayColor   = color.NRGBA{190, 190, 190, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotFreeColor       = color.RGBA{133, 193, 85, 220}
	slotBookedColor     = color.RGBA{255, 182, 193, 255}
	slotBlockedColor    = color.RGBA{158, 158, 158, 200}
	slotTextColor       = color.RGBA{20, 24, 28, 230}
	slotBookedTextColor = color.RGBA{120, 40, 50, 255}
	slotShadowColor     = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// hourRange содержит диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsOnce   sync.Once
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

func parseFonts() {
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		cachedFonts[FontStyleDefault] = f
	}
	if f, err := opentype.Parse(gobold.TTF); err == nil {
		cachedFonts[FontStyleBold] = f
	}
}

// loadFont ставит шрифт нужного размера или basicfont как fallback
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsOnce.Do(parseFonts)

	parsed, ok := cachedFonts[style]
	if !ok {
		parsed, ok = cachedFonts[FontStyleDefault]
	}
	if ok {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// WeekImage рисует неделю календаря корта начиная с понедельника недели weekOf.
// now нужен для подсветки сегодняшнего дня и линии текущего времени.
func WeekImage(title string, weekOf time.Time, days []*model.CalendarDay, now time.Time) ([]byte, error) {
	start := WeekStart(weekOf)
	today := model.DateOf(now)

	byDate := make(map[string]*model.CalendarDay, len(days))
	for _, d := range days {
		byDate[d.Date.Format(model.DateLayout)] = d
	}

	hours := calculateHourRange(days)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, title, start)
	drawHourLabels(dc, hours, cellHeight)

	showNow := false
	for i := 0; i < totalDaysInWeek; i++ {
		date := start.AddDate(0, 0, i)
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		day := byDate[date.Format(model.DateLayout)]
		isToday := date.Equal(today)
		showNow = showNow || isToday

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, isToday, day != nil && day.IsClosed)
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		if day != nil {
			for _, slot := range day.Slots {
				drawSlot(dc, slot, x, y, dayWidth, hours, cellHeight)
			}
		}
	}

	if showNow {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WeekStart понедельник недели даты
func WeekStart(date time.Time) time.Time {
	d := model.DateOf(date)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// calculateHourRange определяет диапазон часов по слотам недели
func calculateHourRange(days []*model.CalendarDay) hourRange {
	minHour, maxHour := 24, 0
	for _, d := range days {
		for _, s := range d.Slots {
			startH := int(s.Time) / 60
			endH := (int(s.Time) + model.SlotMinutes + 59) / 60
			if startH < minHour {
				minHour = startH
			}
			if endH > maxHour {
				maxHour = endH
			}
		}
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	return hourRange{start: minHour, end: maxHour, total: maxHour - minHour}
}

// drawHeader рисует название корта и месяц
func drawHeader(dc *gg.Context, title string, start time.Time) {
	end := start.AddDate(0, 0, totalDaysInWeek-1)
	month := monthName(start.Month())
	if end.Month() != start.Month() {
		month += " - " + monthName(end.Month())
	}

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title+" · "+month, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleDefault)
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		label := model.Clock((hours.start + i) * 60).String()
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday, isClosed bool) {
	switch {
	case isClosed:
		dc.SetColor(closedDayColor)
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()

	if isClosed {
		loadFont(dc, dayFontSize, FontStyleBold)
		dc.SetColor(textColor)
		dc.DrawStringAnchored("Закрыто", x+float64(dayWidth)/2, y+float64(dayHeight)/2, 0.5, 0.5)
	}
}

// drawDayHeader рисует день недели и дату
func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawSlot рисует один получасовой слот
func drawSlot(dc *gg.Context, slot model.Slot, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(slot.Time) / 60
	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := cellHeight * float64(model.SlotMinutes) / 60
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	fill, text := slotColors(slot)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+1+shadowOffset, slotWidth, slotHeight-2, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+1, slotWidth, slotHeight-2, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+1, slotWidth, slotHeight-2, slotBorderRadius)
	dc.Stroke()

	if slotHeight > slotTimeFontSize {
		loadFont(dc, slotTimeFontSize, FontStyleDefault)
		dc.SetColor(text)
		dc.DrawStringAnchored(slot.Time.String(), x+dayPaddingX+6, slotY+slotHeight/2, 0, 0.4)
	}
}

// slotColors цвет заливки и текста по состоянию слота
func slotColors(slot model.Slot) (color.RGBA, color.RGBA) {
	switch {
	case slot.Enabled:
		return slotFreeColor, slotTextColor
	case slot.BookingID != nil:
		return slotBookedColor, slotBookedTextColor
	default:
		return slotBlockedColor, slotTextColor
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует красную линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), y)
	dc.Stroke()
}

// drawLegend рисует легенду справа
func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		Label string
		Clr   color.Color
	}{
		{"Свободно", slotFreeColor},
		{"Забронировано", slotBookedColor},
		{"Закрыто", slotBlockedColor},
	}

	boxW, boxH := 20.0, 14.0
	x := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 90.0

	for _, item := range items {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize, FontStyleDefault)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}

func weekdayShort(weekday time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[weekday]
}

func monthName(month time.Month) string {
	return [...]string{"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}[month]
}
