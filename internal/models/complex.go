package models

import "github.com/paulmach/orb"

// Project is a residential complex as listed on the projects page.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Complex is one residential development ("ЖК"). Rows are keyed by ComplexID
// and are never updated once written.
type Complex struct {
	ComplexID   int64    `json:"complex_id" gorm:"column:complex_id;primaryKey;autoIncrement:false"`
	City        *string  `json:"city" gorm:"column:city"`
	Name        *string  `json:"name" gorm:"column:name"`
	URL         *string  `json:"url" gorm:"column:url"`
	Metro       *string  `json:"metro" gorm:"column:metro"`
	TimeToMetro *int     `json:"time_to_metro" gorm:"column:time_to_metro"`
	Latitude    *float64 `json:"latitude" gorm:"column:latitude"`
	Longitude   *float64 `json:"longitude" gorm:"column:longitude"`
	Address     *string  `json:"address" gorm:"column:address"`
	ObservedAt  string   `json:"observed_at" gorm:"column:observed_at"`
}

func (Complex) TableName() string {
	return "complexes"
}

// Location returns the complex coordinates, or false when either is missing.
func (c *Complex) Location() (orb.Point, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*c.Longitude, *c.Latitude}, true
}
