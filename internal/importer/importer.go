package importer

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// columnSpec names the header synonyms accepted for each logical column of a
// platform export. Platforms rename columns between export versions and mix
// English and Portuguese, so matching is by normalized synonym, not position.
type columnSpec struct {
	key   []string // reference key column (required)
	value []string // money column (required)
	trips []string // trip count column (optional)
	label []string // human label column (optional)
}

var platformColumns = map[string]columnSpec{
	constants.PLATFORM_UBER: {
		key:   []string{"driver uuid", "uuid", "motorista uuid"},
		value: []string{"net earnings", "total earnings", "ganhos", "ganhos liquidos", "total"},
		trips: []string{"trips", "viagens", "completed trips"},
		label: []string{"driver", "name", "nome", "first name"},
	},
	constants.PLATFORM_BOLT: {
		key:   []string{"email", "driver email", "e-mail"},
		value: []string{"net earnings", "earnings", "ganhos", "valor liquido", "total"},
		trips: []string{"rides", "trips", "viagens"},
		label: []string{"driver", "name", "nome", "condutor"},
	},
	constants.PLATFORM_VIAVERDE: {
		key:   []string{"identifier", "obu", "matricula", "plate", "dispositivo"},
		value: []string{"value", "valor", "total", "montante"},
		label: []string{"description", "descricao", "via"},
	},
	constants.PLATFORM_MYPRIO: {
		key:   []string{"card", "cartao", "card number", "matricula", "plate"},
		value: []string{"amount", "valor", "total", "montante"},
		label: []string{"station", "posto", "descricao"},
	},
}

func normalizeHeader(h string) string {
	h = utils.NormalizeKey(h)
	replacer := strings.NewReplacer("á", "a", "ã", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "õ", "o", "ç", "c", "ú", "u", "_", " ")
	h = replacer.Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func findColumn(headers []string, synonyms []string) int {
	for i, h := range headers {
		normalized := normalizeHeader(h)
		for _, syn := range synonyms {
			if normalized == syn {
				return i
			}
		}
	}
	return -1
}

// parseAmount reads a money cell tolerating both "1234.56" and the
// European "1.234,56", plus stray currency symbols.
func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("€", "", "eur", "", "EUR", "", " ", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousand separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", raw)
	}
	return v, nil
}

func parseTrips(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ParsePlatformExport reads one platform's weekly export from an xlsx stream
// and returns the raw rows for aggregation. The first sheet is used; the
// first row is the header. Rows without a reference key or with an
// unparseable amount are skipped with a log line, never silently.
func ParsePlatformExport(platform string, r io.Reader) ([]models.RawPlatformRow, error) {
	spec, ok := platformColumns[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s export: %w", platform, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s export has no sheets", platform)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s export: %w", platform, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s export has no data rows", platform)
	}

	headers := rows[0]
	keyIdx := findColumn(headers, spec.key)
	valueIdx := findColumn(headers, spec.value)
	if keyIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("%s export is missing required columns (header row: %v)", platform, headers)
	}
	tripsIdx := findColumn(headers, spec.trips)
	labelIdx := findColumn(headers, spec.label)

	var out []models.RawPlatformRow
	for i, row := range rows[1:] {
		key := strings.TrimSpace(cellAt(row, keyIdx))
		if key == "" {
			continue
		}
		value, errParse := parseAmount(cellAt(row, valueIdx))
		if errParse != nil {
			log.Printf("ParsePlatformExport: %s row %d: %v, skipping", platform, i+2, errParse)
			continue
		}
		out = append(out, models.RawPlatformRow{
			Platform:     platform,
			ReferenceKey: key,
			Label:        strings.TrimSpace(cellAt(row, labelIdx)),
			Value:        value,
			Trips:        parseTrips(cellAt(row, tripsIdx)),
		})
	}
	log.Printf("ParsePlatformExport: %s export parsed, %d row(s).", platform, len(out))
	return out, nil
}
