package telegram

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/darkus007/FlatScrapper/internal/models"
)

// utf8BOM lets spreadsheet applications detect the encoding of the file.
const utf8BOM = "\xEF\xBB\xBF"

var exportHeader = []string{
	"id квартиры", "город", "ЖК", "метро", "минут до метро", "адрес", "этаж",
	"комнат", "площадь", "отделка", "корпус", "заселение", "ссылка",
	"акция", "описание акции", "цена", "цена за метр", "бронь", "дата",
}

// WriteCSV writes rows to dir/name.csv and returns the file path.
func WriteCSV(dir, name string, rows []models.FlatRow) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(utf8BOM); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(exportHeader); err != nil {
		return "", fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(exportRecord(row)); err != nil {
			return "", fmt.Errorf("failed to write export row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}

	return path, nil
}

func exportRecord(row models.FlatRow) []string {
	finishing := ""
	if row.Finishing != nil {
		finishing = "нет"
		if *row.Finishing {
			finishing = "да"
		}
	}

	return []string{
		strconv.FormatInt(row.FlatID, 10),
		str(row.City),
		str(row.ComplexName),
		str(row.Metro),
		num(row.TimeToMetro),
		str(row.Address),
		num(row.Floor),
		num(row.Rooms),
		decimal(row.Area),
		finishing,
		str(row.Bulk),
		str(row.SettlementDate),
		row.URL,
		str(row.BenefitName),
		str(row.BenefitDescription),
		num64(row.Price),
		num64(row.MeterPrice),
		str(row.BookingStatus),
		row.ObservedAt,
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func num(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func num64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func decimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
