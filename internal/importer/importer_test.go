package importer

import (
	"bytes"
	"math"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
)

func buildXLSX(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestParseUberExport(t *testing.T) {
	buf := buildXLSX(t, [][]interface{}{
		{"Driver UUID", "Driver", "Trips", "Net Earnings"},
		{"aaaa-1111", "Alice", 40, 1023.45},
		{"bbbb-2222", "Bob", 25, 640.10},
		{"", "ignored blank key", 1, 10},
	})

	rows, err := ParsePlatformExport(constants.PLATFORM_UBER, buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ReferenceKey != "aaaa-1111" || rows[0].Trips != 40 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if math.Abs(rows[0].Value-1023.45) > 0.001 {
		t.Errorf("row 0 value = %v", rows[0].Value)
	}
	if rows[1].Label != "Bob" {
		t.Errorf("row 1 label = %q", rows[1].Label)
	}
}

func TestParseExportHeaderSynonyms(t *testing.T) {
	// Portuguese Bolt export with accented headers.
	buf := buildXLSX(t, [][]interface{}{
		{"E-mail", "Condutor", "Viagens", "Ganhos"},
		{"alice@example.com", "Alice", "12", "345,67"},
	})

	rows, err := ParsePlatformExport(constants.PLATFORM_BOLT, buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ReferenceKey != "alice@example.com" {
		t.Errorf("key = %q", rows[0].ReferenceKey)
	}
	// European decimal comma.
	if math.Abs(rows[0].Value-345.67) > 0.001 {
		t.Errorf("value = %v", rows[0].Value)
	}
	if rows[0].Trips != 12 {
		t.Errorf("trips = %d", rows[0].Trips)
	}
}

func TestParseViaVerdeByPlate(t *testing.T) {
	buf := buildXLSX(t, [][]interface{}{
		{"Matrícula", "Descrição", "Valor"},
		{"AA-11-AA", "A1 Porto-Lisboa", "12,50"},
		{"AA-11-AA", "Ponte 25 de Abril", "1.234,56"},
	})

	rows, err := ParsePlatformExport(constants.PLATFORM_VIAVERDE, buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if math.Abs(rows[1].Value-1234.56) > 0.001 {
		t.Errorf("thousand separator mishandled: %v", rows[1].Value)
	}
}

func TestParseExportMissingColumns(t *testing.T) {
	buf := buildXLSX(t, [][]interface{}{
		{"Something", "Else"},
		{"x", "y"},
	})
	if _, err := ParsePlatformExport(constants.PLATFORM_UBER, buf); err == nil {
		t.Error("export without required columns must be rejected")
	}
}

func TestParseExportUnknownPlatform(t *testing.T) {
	buf := buildXLSX(t, [][]interface{}{{"A"}, {"1"}})
	if _, err := ParsePlatformExport("faxmachine", buf); err == nil {
		t.Error("unknown platform must be rejected")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"345,67", 345.67},
		{"12,50 €", 12.50},
		{"", 0},
		{"-5,25", -5.25},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		if err != nil {
			t.Errorf("parseAmount(%q) error: %v", tc.in, err)
			continue
		}
		if math.Abs(got-tc.want) > 0.001 {
			t.Errorf("parseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseAmount("not-a-number"); err == nil {
		t.Error("garbage amount must be rejected")
	}
}
