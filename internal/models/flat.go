package models

// Flat is one sellable unit inside a Complex, keyed by FlatID.
type Flat struct {
	FlatID         int64    `json:"flat_id" gorm:"column:flat_id;primaryKey;autoIncrement:false"`
	ComplexID      int64    `json:"complex_id" gorm:"column:complex_id"`
	Address        *string  `json:"address" gorm:"column:address"`
	Floor          *int     `json:"floor" gorm:"column:floor"`
	Rooms          *int     `json:"rooms" gorm:"column:rooms"`
	Area           *float64 `json:"area" gorm:"column:area"`
	Finishing      *bool    `json:"finishing" gorm:"column:finishing"`
	Bulk           *string  `json:"bulk" gorm:"column:bulk"`
	SettlementDate *string  `json:"settlement_date" gorm:"column:settlement_date"`
	URLSuffix      string   `json:"url_suffix" gorm:"column:url_suffix"`
	ObservedAt     string   `json:"observed_at" gorm:"column:observed_at"`
}

func (Flat) TableName() string {
	return "flats"
}
