package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

func TestDecode_UnitCategories(t *testing.T) {
	tests := []struct {
		code, value string
		wantName    string
		wantValue   string
	}{
		{CodePOP, "30", "강수확률", "30 ％"},
		{CodePCP, "1.5", "1시간 강수량", "1.5 ㎜"},
		{CodePEH, "80", "습도", "80 ％"},
		{CodeREH, "75", "습도", "75 ％"},
		{CodeSNO, "2", "1시간 신적설", "2 ㎝"},
		{CodeTMP, "21", "1시간 기온", "21 ℃"},
		{CodeTMN, "-3", "일 최저기온", "-3 ℃"},
		{CodeTMX, "28.5", "일 최고기온", "28.5 ℃"},
		{CodeUUU, "-1.2", "풍속(동서성분)", "-1.2 ㎧"},
		{CodeVVV, "0.4", "풍속(남북성분)", "0.4 ㎧"},
		{CodeWAV, "1", "파고", "1 M"},
		{CodeWSD, "3.3", "풍속", "3.3 ㎧"},
		{CodePCP, "강수없음", "1시간 강수량", "강수없음 ㎜"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"="+tt.value, func(t *testing.T) {
			got := Decode(tt.code, tt.value)
			assert.Equal(t, models.DisplayCategory{Category: tt.code, Name: tt.wantName, Value: tt.wantValue}, got)
		})
	}
}

func TestDecode_PrecipitationType(t *testing.T) {
	want := map[string]string{
		"0": "없음", "1": "비", "2": "비/눈", "3": "눈",
		"4": "소나기", "5": "빗방울눈날림", "6": "눈날림",
		"7": Unknown, "1.5": Unknown, "rain": Unknown,
	}
	for value, label := range want {
		got := Decode(CodePTY, value)
		assert.Equal(t, "강수형태", got.Name, value)
		assert.Equal(t, label, got.Value, value)
	}
}

func TestDecode_Sky(t *testing.T) {
	want := map[string]string{
		"1": "맑음", "3": "구름많음", "4": "흐림", "2": Unknown, "": Unknown,
	}
	for value, label := range want {
		got := Decode(CodeSKY, value)
		assert.Equal(t, "하늘상태", got.Name, value)
		assert.Equal(t, label, got.Value, value)
	}
}

func TestBearing_Buckets(t *testing.T) {
	tests := map[string]string{
		"0":      "N",
		"11.24":  "N",
		"11.25":  "NNE",
		"23":     "NNE",
		"45":     "NE",
		"90":     "E",
		"135":    "SE",
		"180":    "S",
		"225":    "SW",
		"270":    "W",
		"315":    "NW",
		"340":    "NNW",
		"348.75": "N",
		"359":    "N",
		"360":    "N",
		"":       "",
		"calm":   "",
	}
	for value, want := range tests {
		assert.Equal(t, want, Bearing(value), value)
		assert.Equal(t, want, Decode(CodeVEC, value).Value, value)
	}
}

func TestDecode_UnknownCodeIsTotal(t *testing.T) {
	for _, code := range []string{"", "XYZ", "tmp", "LGT"} {
		assert.NotPanics(t, func() {
			got := Decode(code, "12")
			assert.Equal(t, Unknown, got.Name)
			assert.Empty(t, got.Value)
			assert.Equal(t, code, got.Category)
		})
	}
}

func TestDecode_EveryCodeHasName(t *testing.T) {
	for _, code := range []string{CodePOP, CodePTY, CodePCP, CodePEH, CodeREH, CodeSNO, CodeSKY, CodeTMP,
		CodeTMN, CodeTMX, CodeUUU, CodeVVV, CodeWAV, CodeVEC, CodeWSD} {
		assert.NotEqual(t, Unknown, Decode(code, "1").Name, code)
	}
	assert.Equal(t, Unknown, Decode("XYZ", "1").Name)
}
