// Package grid projects WGS84 coordinates onto the KMA village forecast grid
// (Lambert Conformal Conic, 5 km cells).
package grid

import (
	"math"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

// Projection parameters of the published KMA grid. Origin offsets are in grid units.
const (
	earthRadiusKm = 6371.00877
	spacingKm     = 5.0
	stdParallel1  = 30.0
	stdParallel2  = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 210 / spacingKm
	originY       = 675 / spacingKm
)

const degToRad = math.Pi / 180.0

// lambert holds the derived cone constants. They depend only on the fixed
// parameters above, so they are computed once.
type lambert struct {
	re float64 // earth radius in grid units
	sn float64 // cone constant
	sf float64 // scale factor
	ro float64 // radius at origin latitude
}

var proj = newLambert()

func newLambert() lambert {
	re := earthRadiusKm / spacingKm
	slat1 := stdParallel1 * degToRad
	slat2 := stdParallel2 * degToRad
	olat := originLat * degToRad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)
	sf := math.Pow(math.Tan(math.Pi*0.25+slat1*0.5), sn) * math.Cos(slat1) / sn
	ro := re * sf / math.Pow(math.Tan(math.Pi*0.25+olat*0.5), sn)

	return lambert{re: re, sn: sn, sf: sf, ro: ro}
}

// Convert returns the grid cell containing p. Indices are truncated, not
// rounded, after adding 1.5. Points outside the service area are not rejected.
func Convert(p models.GeoPoint) models.GridCell {
	ra := proj.re * proj.sf / math.Pow(math.Tan(math.Pi*0.25+p.Latitude*degToRad*0.5), proj.sn)

	theta := p.Longitude*degToRad - originLon*degToRad
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= proj.sn

	return models.GridCell{
		X: int(math.Trunc(ra*math.Sin(theta) + originX + 1.5)),
		Y: int(math.Trunc(proj.ro - ra*math.Cos(theta) + originY + 1.5)),
	}
}

// ConvertLatLon is Convert for a bare latitude/longitude pair.
func ConvertLatLon(lat, lon float64) models.GridCell {
	return Convert(models.GeoPoint{Latitude: lat, Longitude: lon})
}
