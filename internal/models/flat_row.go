package models

// FlatRow is a flat joined with its complex and one price snapshot, as
// returned by the point lookup and the filtered search.
type FlatRow struct {
	FlatID             int64    `json:"flat_id"`
	City               *string  `json:"city"`
	ComplexName        *string  `json:"complex_name"`
	Metro              *string  `json:"metro"`
	TimeToMetro        *int     `json:"time_to_metro"`
	Address            *string  `json:"address"`
	Floor              *int     `json:"floor"`
	Rooms              *int     `json:"rooms"`
	Area               *float64 `json:"area"`
	Finishing          *bool    `json:"finishing"`
	Bulk               *string  `json:"bulk"`
	SettlementDate     *string  `json:"settlement_date"`
	URL                string   `json:"url"`
	BenefitName        *string  `json:"benefit_name"`
	BenefitDescription *string  `json:"benefit_description"`
	Price              *int64   `json:"price"`
	MeterPrice         *int64   `json:"meter_price"`
	BookingStatus      *string  `json:"booking_status"`
	ObservedAt         string   `json:"observed_at"`
}

// ComplexDistance pairs a complex with its distance in metres from a point.
type ComplexDistance struct {
	Complex  Complex `json:"complex"`
	Distance float64 `json:"distance_m"`
}
