// Package validation checks forecast query parameters before they reach the service.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

// ErrInvalidCoordinates is returned for missing, non-numeric or out-of-range coordinates.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// CoordinateQuery is the raw query of GET /weather.
type CoordinateQuery struct {
	Latitude  string `validate:"required,latitude"`
	Longitude string `validate:"required,longitude"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseCoordinates validates the raw latitude and longitude query values and
// returns them as a GeoPoint. Only the WGS84 range is enforced; points outside
// the forecast grid are still accepted.
func ParseCoordinates(latitude, longitude string) (models.GeoPoint, error) {
	q := CoordinateQuery{
		Latitude:  strings.TrimSpace(latitude),
		Longitude: strings.TrimSpace(longitude),
	}
	if err := validate.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return models.GeoPoint{}, fmt.Errorf("%w: %s", ErrInvalidCoordinates, describe(fieldErrs[0]))
		}
		return models.GeoPoint{}, fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
	}

	lat, err := strconv.ParseFloat(q.Latitude, 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("%w: latitude must be a number", ErrInvalidCoordinates)
	}
	lon, err := strconv.ParseFloat(q.Longitude, 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("%w: longitude must be a number", ErrInvalidCoordinates)
	}
	return models.GeoPoint{Latitude: lat, Longitude: lon}, nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	if fe.Tag() == "required" {
		return field + " is required"
	}
	return fmt.Sprintf("%s must be a valid %s", field, fe.Tag())
}
