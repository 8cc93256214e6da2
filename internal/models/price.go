package models

// Booking statuses reported by the listings API. The API may report others.
const (
	BookingStatusActive = "active"
	BookingStatusBooked = "booked"
)

// Price is one observed price snapshot of a Flat. PriceID equals the FlatID;
// ID is the insertion order and is assigned by the store.
type Price struct {
	ID                 int64   `json:"-" gorm:"column:id;primaryKey;autoIncrement"`
	PriceID            int64   `json:"price_id" gorm:"column:price_id"`
	BenefitName        *string `json:"benefit_name" gorm:"column:benefit_name"`
	BenefitDescription *string `json:"benefit_description" gorm:"column:benefit_description"`
	Price              *int64  `json:"price" gorm:"column:price"`
	MeterPrice         *int64  `json:"meter_price" gorm:"column:meter_price"`
	BookingStatus      *string `json:"booking_status" gorm:"column:booking_status"`
	ObservedAt         string  `json:"observed_at" gorm:"column:observed_at"`
}

func (Price) TableName() string {
	return "prices"
}
