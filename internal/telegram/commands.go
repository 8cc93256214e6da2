package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/darkus007/FlatScrapper/internal/models"
)

// Querier is the read side of the database used by bot commands.
type Querier interface {
	GetFlat(ctx context.Context, flatID int64) ([]models.FlatRow, error)
	GetFlatsByFilter(ctx context.Context, filter models.FlatFilter) ([]models.FlatRow, error)
	GetDistinctValues(ctx context.Context, table, column string) ([]string, error)
}

const helpText = `<b>Привет!</b>
<b>Набери:</b>
<b>квартира</b> "id" - для получения статистики по выбранной квартире;
<b>квартиры</b> "Город или %" "Название ЖК или %" "Количество комнат" "Максимальная цена" "Год заселения" "Отделка (0 или 1)" "Бронь (active или %)"
Например: <i>Квартиры %Москв% % 1 10000000 2024 1 active</i>
<b>Город</b> - для получения списка доступных городов;
<b>Метро</b> - для получения списка станций метро;
<b>ЖК</b> - для получения списка доступных ЖК.`

const unknownCommandText = "<b>Команда не распознана.</b>\n"

const filterArgs = 7

// listCommands maps single-word commands to the complexes column they list.
var listCommands = map[string]string{
	"жк":    "name",
	"город": "city",
	"метро": "metro",
}

// Reply is the bot answer to one command: either a text or a file to send.
type Reply struct {
	Text string
	HTML bool
	File string
}

type Commands struct {
	store     Querier
	exportDir string
	now       func() time.Time
}

func NewCommands(store Querier, exportDir string) *Commands {
	return &Commands{
		store:     store,
		exportDir: exportDir,
		now:       time.Now,
	}
}

// Handle parses a space separated command. Command words are case
// insensitive. Errors are storage or export failures; user input mistakes
// are answered with a text reply instead.
func (c *Commands) Handle(ctx context.Context, text string) (Reply, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return unknownCommand(), nil
	}

	command := strings.ToLower(fields[0])
	if strings.HasPrefix(command, "/") {
		command, _, _ = strings.Cut(command, "@")
	}
	args := fields[1:]

	switch {
	case command == "/start" || command == "/help":
		return Reply{Text: helpText, HTML: true}, nil
	case len(args) == 0 && listCommands[command] != "":
		return c.listValues(ctx, listCommands[command])
	case command == "квартира" && len(args) == 1:
		return c.flatHistory(ctx, args[0])
	case command == "квартиры" && len(args) == filterArgs:
		return c.searchFlats(ctx, args)
	default:
		return unknownCommand(), nil
	}
}

func (c *Commands) listValues(ctx context.Context, column string) (Reply, error) {
	values, err := c.store.GetDistinctValues(ctx, "complexes", column)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to list %s: %w", column, err)
	}

	var b strings.Builder
	for _, v := range values {
		b.WriteString(v)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nВсего %d.", len(values))
	return Reply{Text: b.String()}, nil
}

func (c *Commands) flatHistory(ctx context.Context, arg string) (Reply, error) {
	flatID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return Reply{Text: fmt.Sprintf("Некорректный id квартиры: %s.", arg)}, nil
	}

	rows, err := c.store.GetFlat(ctx, flatID)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to get flat %d: %w", flatID, err)
	}
	if len(rows) == 0 {
		return Reply{Text: fmt.Sprintf("Квартира с id %d не найдена.", flatID)}, nil
	}

	path, err := WriteCSV(c.exportDir, fmt.Sprintf("Квартира_id%d__%s", flatID, c.timestamp()), rows)
	if err != nil {
		return Reply{}, err
	}
	return Reply{File: path}, nil
}

func (c *Commands) searchFlats(ctx context.Context, args []string) (Reply, error) {
	filter, err := ParseFilter(args)
	if err != nil {
		return Reply{Text: fmt.Sprintf("Некорректный фильтр: %v.", err)}, nil
	}

	rows, err := c.store.GetFlatsByFilter(ctx, filter)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to search flats: %w", err)
	}
	if len(rows) == 0 {
		return Reply{Text: "Квартиры по указанному фильтру не найдены."}, nil
	}

	path, err := WriteCSV(c.exportDir, "Квартиры__"+c.timestamp(), rows)
	if err != nil {
		return Reply{}, err
	}
	return Reply{File: path}, nil
}

// ParseFilter reads the seven filter arguments: city, name, rooms,
// max price, settlement year, finishing (0 or 1) and booking status.
// "%" in any position means no restriction.
func ParseFilter(args []string) (models.FlatFilter, error) {
	if len(args) != filterArgs {
		return models.FlatFilter{}, fmt.Errorf("ожидается %d параметров", filterArgs)
	}

	filter := models.FlatFilter{
		City:          args[0],
		Name:          args[1],
		BookingStatus: args[6],
	}

	if args[2] != models.AnyPattern {
		rooms, err := strconv.Atoi(args[2])
		if err != nil || rooms < 0 {
			return models.FlatFilter{}, errors.New("количество комнат должно быть числом")
		}
		filter.Rooms = &rooms
	}

	if args[3] != models.AnyPattern {
		price, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil || price < 0 {
			return models.FlatFilter{}, errors.New("цена должна быть числом")
		}
		filter.MaxPrice = &price
	}

	if args[4] != models.AnyPattern {
		year, err := strconv.Atoi(args[4])
		if err != nil || year < 1000 || year > 9999 {
			return models.FlatFilter{}, errors.New("год заселения должен быть четырёхзначным числом")
		}
		date := fmt.Sprintf("%d-12-31", year)
		filter.MaxSettlementDate = &date
	}

	switch args[5] {
	case models.AnyPattern:
	case "0", "1":
		finishing := args[5] == "1"
		filter.Finishing = &finishing
	default:
		return models.FlatFilter{}, errors.New("отделка должна быть 0 или 1")
	}

	return filter, nil
}

func (c *Commands) timestamp() string {
	return c.now().Format("2006-01-02_15-04-05")
}

func unknownCommand() Reply {
	return Reply{Text: unknownCommandText + helpText, HTML: true}
}
