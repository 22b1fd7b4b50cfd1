package main

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"fleamarket.gg/internal/market/catalogs"
)

const priceSheet = "prices"

type priceRow struct {
	Tpl      string
	Name     string
	Flea     float64
	Handbook float64
}

// Ratio is flea over handbook, 0 when the handbook has no price.
func (r priceRow) Ratio() float64 {
	if r.Handbook <= 0 {
		return 0
	}
	return r.Flea / r.Handbook
}

// priceRows joins live prices with catalog names and handbook prices,
// sorted by name then tpl.
func priceRows(prices map[string]float64, cats *catalogs.Catalogs) []priceRow {
	rows := make([]priceRow, 0, len(prices))
	for tpl, p := range prices {
		r := priceRow{Tpl: tpl, Name: tpl, Flea: p}
		if cats != nil {
			r.Name = cats.Items.Title(tpl)
			r.Handbook, _ = cats.Handbook.Price(tpl)
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Tpl < rows[j].Tpl
	})
	return rows
}

func writePriceReport(path string, rows []priceRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", priceSheet); err != nil {
		return err
	}
	header := []any{"tpl", "name", "flea_price", "handbook_price", "ratio"}
	if err := f.SetSheetRow(priceSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Tpl, r.Name, r.Flea, r.Handbook, r.Ratio()}
		if err := f.SetSheetRow(priceSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(priceSheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(priceSheet, "B", "B", 36); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
