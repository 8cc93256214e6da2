package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/darkus007/FlatScrapper/internal/models"
)

// ErrUnknownColumn is returned for distinct-value lookups outside the schema.
var ErrUnknownColumn = errors.New("unknown table or column")

var schemaColumns = map[string]map[string]bool{
	"complexes": {
		"complex_id": true, "city": true, "name": true, "url": true, "metro": true,
		"time_to_metro": true, "latitude": true, "longitude": true, "address": true,
		"observed_at": true,
	},
	"flats": {
		"flat_id": true, "complex_id": true, "address": true, "floor": true,
		"rooms": true, "area": true, "finishing": true, "bulk": true,
		"settlement_date": true, "url_suffix": true, "observed_at": true,
	},
	"prices": {
		"price_id": true, "benefit_name": true, "benefit_description": true,
		"price": true, "meter_price": true, "booking_status": true, "observed_at": true,
	},
}

const flatRowColumns = `
	f.flat_id, c.city, c.name, c.metro, c.time_to_metro,
	f.address, f.floor, f.rooms, f.area, f.finishing, f.bulk, f.settlement_date,
	COALESCE(c.url, '') || f.url_suffix,
	p.benefit_name, p.benefit_description, p.price, p.meter_price,
	p.booking_status, p.observed_at`

// GetFlat returns one row per stored price snapshot of the flat, oldest
// first. An unknown flat yields an empty slice.
func (d *Database) GetFlat(ctx context.Context, flatID int64) ([]models.FlatRow, error) {
	query := `SELECT ` + flatRowColumns + `
		FROM flats f
		JOIN complexes c ON c.complex_id = f.complex_id
		JOIN prices p ON p.price_id = f.flat_id
		WHERE f.flat_id = ?
		ORDER BY p.observed_at, p.id`

	rows, err := d.db.QueryContext(ctx, query, flatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flat: %w", err)
	}
	defer rows.Close()

	return scanFlatRows(rows)
}

// GetFlatsByFilter returns flats joined with their most recent price
// snapshot, restricted by filter. Only the latest snapshot is matched, so a
// flat that is booked now is excluded from an "active" search even if it
// was active earlier.
func (d *Database) GetFlatsByFilter(ctx context.Context, filter models.FlatFilter) ([]models.FlatRow, error) {
	filter = filter.WithDefaults()

	query := `SELECT ` + flatRowColumns + `
		FROM flats f
		JOIN complexes c ON c.complex_id = f.complex_id
		JOIN prices p ON p.id = (
			SELECT lp.id FROM prices lp
			WHERE lp.price_id = f.flat_id
			ORDER BY lp.observed_at DESC, lp.id DESC
			LIMIT 1
		)
		WHERE COALESCE(c.city, '') LIKE ?
		AND COALESCE(c.name, '') LIKE ?
		AND (? IS NULL OR f.rooms = ?)
		AND (? IS NULL OR p.price <= ?)
		AND (? IS NULL OR f.settlement_date <= ?)
		AND (? IS NULL OR f.finishing = ?)
		AND COALESCE(p.booking_status, '') LIKE ?
		ORDER BY p.price, f.flat_id`

	rows, err := d.db.QueryContext(ctx, query,
		filter.City,
		filter.Name,
		filter.Rooms, filter.Rooms,
		filter.MaxPrice, filter.MaxPrice,
		filter.MaxSettlementDate, filter.MaxSettlementDate,
		filter.Finishing, filter.Finishing,
		filter.BookingStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flats: %w", err)
	}
	defer rows.Close()

	return scanFlatRows(rows)
}

// GetDistinctValues lists the distinct non-null values of one column,
// rendered as text and sorted.
func (d *Database) GetDistinctValues(ctx context.Context, table, column string) ([]string, error) {
	columns, ok := schemaColumns[table]
	if !ok || !columns[column] {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, column)
	}

	// Identifiers cannot be bound; both were checked against schemaColumns.
	query := fmt.Sprintf(
		`SELECT DISTINCT CAST(%[1]s AS TEXT) FROM %[2]s WHERE %[1]s IS NOT NULL ORDER BY 1`,
		column, table,
	)

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// GetComplexes returns every stored complex ordered by id.
func (d *Database) GetComplexes(ctx context.Context) ([]models.Complex, error) {
	var complexes []models.Complex
	if err := d.orm.WithContext(ctx).Order("complex_id").Find(&complexes).Error; err != nil {
		return nil, fmt.Errorf("failed to query complexes: %w", err)
	}
	return complexes, nil
}

func scanFlatRows(rows *sql.Rows) ([]models.FlatRow, error) {
	result := []models.FlatRow{}
	for rows.Next() {
		var (
			row                              models.FlatRow
			city, name, metro, address, bulk sql.NullString
			settlement, benefit, benefitDesc sql.NullString
			status                           sql.NullString
			timeToMetro, floor, rooms        sql.NullInt64
			price, meterPrice                sql.NullInt64
			area                             sql.NullFloat64
			finishing                        sql.NullBool
		)

		err := rows.Scan(
			&row.FlatID, &city, &name, &metro, &timeToMetro,
			&address, &floor, &rooms, &area, &finishing, &bulk, &settlement,
			&row.URL,
			&benefit, &benefitDesc, &price, &meterPrice,
			&status, &row.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flat row: %w", err)
		}

		row.City = nullString(city)
		row.ComplexName = nullString(name)
		row.Metro = nullString(metro)
		row.TimeToMetro = nullInt(timeToMetro)
		row.Address = nullString(address)
		row.Floor = nullInt(floor)
		row.Rooms = nullInt(rooms)
		if area.Valid {
			row.Area = &area.Float64
		}
		if finishing.Valid {
			row.Finishing = &finishing.Bool
		}
		row.Bulk = nullString(bulk)
		row.SettlementDate = nullString(settlement)
		row.BenefitName = nullString(benefit)
		row.BenefitDescription = nullString(benefitDesc)
		if price.Valid {
			row.Price = &price.Int64
		}
		if meterPrice.Valid {
			row.MeterPrice = &meterPrice.Int64
		}
		row.BookingStatus = nullString(status)

		result = append(result, row)
	}
	return result, rows.Err()
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
