// Package category decodes village forecast category codes into display names
// and unit-suffixed values.
package category

import (
	"math"
	"strconv"
	"strings"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

// Unknown is the name used for unrecognised codes and the value used for
// out-of-table precipitation and sky codes.
const Unknown = "항목없음"

// Category codes sent by the upstream API.
const (
	CodePOP = "POP" // precipitation probability
	CodePTY = "PTY" // precipitation type
	CodePCP = "PCP" // 1h precipitation
	CodePEH = "PEH" // humidity
	CodeREH = "REH" // humidity, as sent by the live API
	CodeSNO = "SNO" // 1h new snow
	CodeSKY = "SKY" // sky condition
	CodeTMP = "TMP" // 1h temperature
	CodeTMN = "TMN" // daily minimum
	CodeTMX = "TMX" // daily maximum
	CodeUUU = "UUU" // east-west wind component
	CodeVVV = "VVV" // north-south wind component
	CodeWAV = "WAV" // wave height
	CodeVEC = "VEC" // wind bearing
	CodeWSD = "WSD" // wind speed
)

type formatter func(value string) string

type entry struct {
	name   string
	format formatter
}

func unit(suffix string) formatter {
	return func(value string) string { return value + " " + suffix }
}

var table = map[string]entry{
	CodePOP: {"강수확률", unit("％")},
	CodePTY: {"강수형태", precipitationType},
	CodePCP: {"1시간 강수량", unit("㎜")},
	CodePEH: {"습도", unit("％")},
	CodeREH: {"습도", unit("％")},
	CodeSNO: {"1시간 신적설", unit("㎝")},
	CodeSKY: {"하늘상태", sky},
	CodeTMP: {"1시간 기온", unit("℃")},
	CodeTMN: {"일 최저기온", unit("℃")},
	CodeTMX: {"일 최고기온", unit("℃")},
	CodeUUU: {"풍속(동서성분)", unit("㎧")},
	CodeVVV: {"풍속(남북성분)", unit("㎧")},
	CodeWAV: {"파고", unit("M")},
	CodeVEC: {"풍향", Bearing},
	CodeWSD: {"풍속", unit("㎧")},
}

var precipitationTypes = map[int]string{
	0: "없음",
	1: "비",
	2: "비/눈",
	3: "눈",
	4: "소나기",
	5: "빗방울눈날림",
	6: "눈날림",
}

var skyStates = map[int]string{
	1: "맑음",
	3: "구름많음",
	4: "흐림",
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Decode maps a category code and representative value to its display form.
// It never fails: unknown codes yield name Unknown and an empty value.
func Decode(code, value string) models.DisplayCategory {
	e, ok := table[code]
	if !ok {
		return models.DisplayCategory{Category: code, Name: Unknown, Value: ""}
	}
	return models.DisplayCategory{Category: code, Name: e.name, Value: e.format(value)}
}

func precipitationType(value string) string {
	return lookupCode(precipitationTypes, value)
}

func sky(value string) string {
	return lookupCode(skyStates, value)
}

// lookupCode resolves an integral code; averaged fractional values fall outside the table.
func lookupCode(codes map[int]string, value string) string {
	f, ok := parseNumber(value)
	if !ok || f != math.Trunc(f) {
		return Unknown
	}
	if label, ok := codes[int(f)]; ok {
		return label
	}
	return Unknown
}

// Bearing converts a wind direction in degrees to one of 16 compass points.
// Non-numeric input yields "".
func Bearing(value string) string {
	deg, ok := parseNumber(value)
	if !ok {
		return ""
	}
	bucket := int(math.Floor((deg+11.25)/22.5)) % len(compassPoints)
	if bucket < 0 {
		bucket += len(compassPoints)
	}
	return compassPoints[bucket]
}

func parseNumber(value string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
