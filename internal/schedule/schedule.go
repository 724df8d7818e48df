// Package schedule resolves which village forecast issuance is queryable at a
// given wall-clock time.
package schedule

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

// slot is an issuance time and the HHmm from which it can be queried upstream.
type slot struct {
	availableFrom int
	baseTime      string
}

// Issuances are published eight times a day and become queryable ten minutes later.
var slots = []slot{
	{availableFrom: 210, baseTime: "0200"},
	{availableFrom: 510, baseTime: "0500"},
	{availableFrom: 810, baseTime: "0800"},
	{availableFrom: 1110, baseTime: "1100"},
	{availableFrom: 1410, baseTime: "1400"},
	{availableFrom: 1710, baseTime: "1700"},
	{availableFrom: 2010, baseTime: "2000"},
	{availableFrom: 2310, baseTime: "2300"},
}

const (
	dateLayout = "20060102"
	lastSlot   = "2300"
)

// Resolve returns the latest issuance available at now, interpreted in now's location.
// Before 02:10 that is the previous day's 2300 run.
func Resolve(now time.Time) models.ForecastBase {
	hhmm := now.Hour()*100 + now.Minute()

	for i := len(slots) - 1; i >= 0; i-- {
		if hhmm >= slots[i].availableFrom {
			return models.ForecastBase{Date: now.Format(dateLayout), Time: slots[i].baseTime}
		}
	}
	return models.ForecastBase{Date: now.AddDate(0, 0, -1).Format(dateLayout), Time: lastSlot}
}

// Resolver resolves the current issuance from a clock in the agency's time zone.
type Resolver struct {
	clock    clockwork.Clock
	location *time.Location
}

// NewResolver returns a Resolver. A nil clock uses real time; a nil location uses KST.
func NewResolver(clock clockwork.Clock, location *time.Location) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = KST()
	}
	return &Resolver{clock: clock, location: location}
}

// Current returns the issuance queryable right now.
func (r *Resolver) Current() models.ForecastBase {
	return Resolve(r.clock.Now().In(r.location))
}

// KST returns Asia/Seoul, or a fixed +09:00 zone when tzdata is unavailable.
// Korea has not observed daylight saving since 1988, so the two agree.
func KST() *time.Location {
	return LoadLocation("Asia/Seoul")
}

// LoadLocation loads name, falling back to fixed +09:00 when it cannot be loaded.
func LoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}
