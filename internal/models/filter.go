package models

// AnyPattern matches every value in a LIKE predicate.
const AnyPattern = "%"

// FlatFilter holds the fixed predicate set of the filtered flat search.
// Pattern fields use SQL LIKE syntax; nil pointers mean "no restriction".
type FlatFilter struct {
	City              string  `json:"city" form:"city"`
	Name              string  `json:"name" form:"name"`
	Rooms             *int    `json:"rooms" form:"rooms"`
	MaxPrice          *int64  `json:"max_price" form:"max_price"`
	MaxSettlementDate *string `json:"max_settlement_date" form:"max_settlement_date"`
	Finishing         *bool   `json:"finishing" form:"finishing"`
	BookingStatus     string  `json:"booking_status" form:"booking_status"`
}

// WithDefaults returns a copy where empty patterns match everything.
func (f FlatFilter) WithDefaults() FlatFilter {
	if f.City == "" {
		f.City = AnyPattern
	}
	if f.Name == "" {
		f.Name = AnyPattern
	}
	if f.BookingStatus == "" {
		f.BookingStatus = AnyPattern
	}
	return f
}
