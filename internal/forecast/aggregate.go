package forecast

import (
	"github.com/kjstillabower/kma-forecast-service/internal/category"
	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

// TimeSlot groups the accumulators of one forecast time, one per category code,
// in first-seen order.
type TimeSlot struct {
	Time       string
	Categories []Accumulator
	byCode     map[string]int
}

// DaySlot groups the time slots of one forecast date in first-seen order.
type DaySlot struct {
	Date   string
	Times  []TimeSlot
	byTime map[string]int
}

// Aggregate folds items, in order, by forecast date, time and category.
// Groups are created at first sight, so output order follows input order.
func Aggregate(items []models.RawForecastItem) []DaySlot {
	var days []DaySlot
	byDate := make(map[string]int)

	for _, item := range items {
		d, ok := byDate[item.Date]
		if !ok {
			days = append(days, DaySlot{Date: item.Date, byTime: make(map[string]int)})
			d = len(days) - 1
			byDate[item.Date] = d
		}
		days[d].add(item)
	}
	return days
}

func (day *DaySlot) add(item models.RawForecastItem) {
	t, ok := day.byTime[item.Time]
	if !ok {
		day.Times = append(day.Times, TimeSlot{Time: item.Time, byCode: make(map[string]int)})
		t = len(day.Times) - 1
		day.byTime[item.Time] = t
	}
	day.Times[t].add(item)
}

func (slot *TimeSlot) add(item models.RawForecastItem) {
	c, ok := slot.byCode[item.Category]
	if !ok {
		slot.Categories = append(slot.Categories, NewAccumulator(item.Category, item.Value))
		slot.byCode[item.Category] = len(slot.Categories) - 1
		return
	}
	slot.Categories[c] = Fold(slot.Categories[c], item.Value)
}

// Decode converts aggregated slots into their display form. Only each
// category's name and formatted representative value are kept.
func Decode(days []DaySlot) []models.DayForecast {
	out := make([]models.DayForecast, 0, len(days))
	for _, day := range days {
		times := make([]models.TimeForecast, 0, len(day.Times))
		for _, slot := range day.Times {
			cats := make([]models.DisplayCategory, 0, len(slot.Categories))
			for _, acc := range slot.Categories {
				cats = append(cats, category.Decode(acc.Category, acc.Value))
			}
			times = append(times, models.TimeForecast{Time: slot.Time, Categories: cats})
		}
		out = append(out, models.DayForecast{Date: day.Date, Times: times})
	}
	return out
}
