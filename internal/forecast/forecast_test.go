package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

func item(date, tm, code, value string) models.RawForecastItem {
	return models.RawForecastItem{Date: date, Time: tm, Category: code, Value: value}
}

func foldAll(code string, values ...string) Accumulator {
	acc := NewAccumulator(code, values[0])
	for _, v := range values[1:] {
		acc = Fold(acc, v)
	}
	return acc
}

func TestFold_NumericMean(t *testing.T) {
	acc := foldAll("TMP", "10", "20", "30")
	assert.Equal(t, "20", acc.Value)
	assert.Equal(t, 3, acc.Count)
	assert.Equal(t, []string{"10", "20", "30"}, acc.Values)
}

func TestFold_DecimalMean(t *testing.T) {
	acc := foldAll("UUU", "0.1", "0.2")
	assert.Equal(t, "0.15", acc.Value)
	assert.Equal(t, 2, acc.Count)
}

func TestFold_NonNumericOverwrite(t *testing.T) {
	acc := foldAll("PCP", "", "foo")
	assert.Equal(t, "foo", acc.Value)
	assert.Equal(t, 0, acc.Count)
	assert.Equal(t, []string{"", "foo"}, acc.Values)
}

func TestFold_NumericKeptOverNonNumeric(t *testing.T) {
	acc := foldAll("PCP", "1.5", "강수없음")
	assert.Equal(t, "1.5", acc.Value)
	assert.Equal(t, 1, acc.Count)
	assert.Len(t, acc.Values, 2)
}

func TestFold_NumericAfterOverwriteStartsMean(t *testing.T) {
	acc := foldAll("PCP", "강수없음", "1", "3")
	// "1" is adopted by overwrite and not counted, so it carries no weight.
	assert.Equal(t, "3", acc.Value)
	assert.Equal(t, 1, acc.Count)
}

func TestFold_SingleValueUntouched(t *testing.T) {
	acc := NewAccumulator("TMP", "21.0")
	assert.Equal(t, "21.0", acc.Value)
	assert.Equal(t, 1, acc.Count)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Decode(Aggregate(nil)))
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	items := []models.RawForecastItem{
		item("20240102", "0600", "TMP", "5"),
		item("20240101", "2300", "TMP", "7"),
		item("20240102", "0300", "SKY", "1"),
		item("20240102", "0600", "POP", "20"),
		item("20240101", "2300", "SKY", "4"),
		item("20240102", "0300", "TMP", "3"),
	}

	days := Aggregate(items)
	require.Len(t, days, 2)
	assert.Equal(t, "20240102", days[0].Date)
	assert.Equal(t, "20240101", days[1].Date)

	require.Len(t, days[0].Times, 2)
	assert.Equal(t, "0600", days[0].Times[0].Time)
	assert.Equal(t, "0300", days[0].Times[1].Time)

	codes := func(slot TimeSlot) []string {
		var out []string
		for _, acc := range slot.Categories {
			out = append(out, acc.Category)
		}
		return out
	}
	assert.Equal(t, []string{"TMP", "POP"}, codes(days[0].Times[0]))
	assert.Equal(t, []string{"SKY", "TMP"}, codes(days[0].Times[1]))
	assert.Equal(t, []string{"TMP", "SKY"}, codes(days[1].Times[0]))
}

func TestAggregate_DuplicatesFold(t *testing.T) {
	items := []models.RawForecastItem{
		item("20240101", "0600", "TMP", "10"),
		item("20240101", "0600", "TMP", "20"),
		item("20240101", "0600", "TMP", "30"),
		item("20240101", "0600", "PCP", "강수없음"),
	}

	days := Aggregate(items)
	require.Len(t, days, 1)
	require.Len(t, days[0].Times, 1)
	slot := days[0].Times[0]
	require.Len(t, slot.Categories, 2)

	tmp, ok := categoryOf(slot, "TMP")
	require.True(t, ok)
	assert.Equal(t, "20", tmp.Value)
	assert.Equal(t, 3, tmp.Count)

	_, ok = categoryOf(slot, "SKY")
	assert.False(t, ok)
}

func categoryOf(slot TimeSlot, code string) (Accumulator, bool) {
	i, ok := slot.byCode[code]
	if !ok {
		return Accumulator{}, false
	}
	return slot.Categories[i], true
}

func TestDecode_DisplayShape(t *testing.T) {
	items := []models.RawForecastItem{
		item("20240101", "0600", "TMP", "20"),
		item("20240101", "0600", "SKY", "3"),
		item("20240101", "0600", "PTY", "0"),
		item("20240101", "0600", "VEC", "90"),
		item("20240101", "0600", "XYZ", "1"),
		item("20240101", "0700", "TMP", "21"),
	}

	got := Decode(Aggregate(items))
	want := []models.DayForecast{
		{
			Date: "20240101",
			Times: []models.TimeForecast{
				{
					Time: "0600",
					Categories: []models.DisplayCategory{
						{Category: "TMP", Name: "1시간 기온", Value: "20 ℃"},
						{Category: "SKY", Name: "하늘상태", Value: "구름많음"},
						{Category: "PTY", Name: "강수형태", Value: "없음"},
						{Category: "VEC", Name: "풍향", Value: "E"},
						{Category: "XYZ", Name: "항목없음", Value: ""},
					},
				},
				{
					Time:       "0700",
					Categories: []models.DisplayCategory{{Category: "TMP", Name: "1시간 기온", Value: "21 ℃"}},
				},
			},
		},
	}
	assert.Equal(t, want, got)
}

func TestAggregate_RequestsDoNotShareState(t *testing.T) {
	first := Aggregate([]models.RawForecastItem{item("20240101", "0600", "TMP", "10")})
	second := Aggregate([]models.RawForecastItem{item("20240101", "0600", "TMP", "30")})

	assert.Equal(t, "10", first[0].Times[0].Categories[0].Value)
	assert.Equal(t, "30", second[0].Times[0].Categories[0].Value)
	assert.Equal(t, 1, second[0].Times[0].Categories[0].Count)
}
