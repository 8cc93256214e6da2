package scraping

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/darkus007/FlatScrapper/internal/models"
)

var (
	buildingPattern = regexp.MustCompile(`[, (]*[Кк]орп[уса]*[\p{L}\p{N}_ ,./()№]*`)
	phasePattern    = regexp.MustCompile(`[, ]*[Ээ]тап[ы]*[\d .,/]+`)
)

// FlatURLSuffix is appended to the complex url to link a single flat.
func FlatURLSuffix(flatID int64) string {
	return "/flats/" + strconv.FormatInt(flatID, 10)
}

// CityFromAddress returns the part of a flat address before the first comma.
func CityFromAddress(address string) string {
	city, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(city)
}

// ProjectAddress strips building and phase numbers from a flat address so
// that it describes the whole complex.
func ProjectAddress(address string) string {
	address = buildingPattern.ReplaceAllString(address, "")
	address = phasePattern.ReplaceAllString(address, "")
	return strings.TrimSpace(address)
}

// NormalizeComplex builds the complex from the first listings page. Values
// the page lacks fall back to the discovered project.
func NormalizeComplex(page any, project models.Project, urlPrefix, observedAt string) models.Complex {
	result := models.Complex{
		ComplexID:   project.ID,
		Name:        String(page, "blocks", 0, "name"),
		Metro:       String(page, "blocks", 0, "metro"),
		TimeToMetro: Int(page, "blocks", 0, "timeOnFoot"),
		Longitude:   Float(page, "blocks", 0, "longitude"),
		Latitude:    Float(page, "blocks", 0, "latitude"),
		ObservedAt:  observedAt,
	}

	if id := Int64(page, "blocks", 0, "id"); id != nil {
		result.ComplexID = *id
	}
	if result.Name == nil && project.Name != "" {
		name := project.Name
		result.Name = &name
	}
	if path := String(page, "blocks", 0, "url"); path != nil {
		link := urlPrefix + strings.TrimPrefix(*path, "/")
		result.URL = &link
	}

	if full := String(page, "blocks", 0, "flats", 0, "address"); full != nil && *full != "" {
		city := CityFromAddress(*full)
		address := ProjectAddress(*full)
		result.City = &city
		result.Address = &address
	}

	return result
}

// NormalizeFlat maps one raw flat object to its Flat and Price records.
// It reports false when the flat has no id, since neither record can be
// keyed without one.
func NormalizeFlat(raw any, complexID int64, observedAt string) (models.Flat, models.Price, bool) {
	id := Int64(raw, "id")
	if id == nil {
		return models.Flat{}, models.Price{}, false
	}

	flat := models.Flat{
		FlatID:         *id,
		ComplexID:      complexID,
		Address:        String(raw, "address"),
		Floor:          Int(raw, "floor"),
		Rooms:          Int(raw, "rooms"),
		Area:           Float(raw, "area"),
		Finishing:      Bool(raw, "finish"),
		Bulk:           String(raw, "bulk", "name"),
		SettlementDate: String(raw, "bulk", "settlementDate"),
		URLSuffix:      FlatURLSuffix(*id),
		ObservedAt:     observedAt,
	}

	price := models.Price{
		PriceID:            *id,
		BenefitName:        String(raw, "mainBenefit", "name"),
		BenefitDescription: String(raw, "mainBenefit", "description"),
		Price:              Int64(raw, "price"),
		MeterPrice:         Int64(raw, "meterPrice"),
		BookingStatus:      String(raw, "bookingStatus"),
		ObservedAt:         observedAt,
	}

	return flat, price, true
}
