package models

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GridCell is an index into the KMA 5 km forecast grid. Sent upstream as nx/ny.
type GridCell struct {
	X int `json:"nx"`
	Y int `json:"ny"`
}

// ForecastBase identifies a forecast run: Date is YYYYMMDD, Time is HHmm.
type ForecastBase struct {
	Date string `json:"baseDate"`
	Time string `json:"baseTime"`
}

// RawForecastItem is one upstream record. Value is untyped text and may not be numeric.
type RawForecastItem struct {
	BaseDate string `json:"baseDate"`
	BaseTime string `json:"baseTime"`
	Category string `json:"category"`
	Date     string `json:"fcstDate"`
	Time     string `json:"fcstTime"`
	Value    string `json:"fcstValue"`
	NX       int    `json:"nx"`
	NY       int    `json:"ny"`
}

// DisplayCategory is a decoded category: code, human-readable name and unit-suffixed value.
type DisplayCategory struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// TimeForecast holds the decoded categories for one forecast time (HHmm).
type TimeForecast struct {
	Time       string            `json:"time"`
	Categories []DisplayCategory `json:"category"`
}

// DayForecast holds the forecast times of one date (YYYYMMDD) in first-seen order.
type DayForecast struct {
	Date  string         `json:"date"`
	Times []TimeForecast `json:"time"`
}
