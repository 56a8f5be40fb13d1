package service

import (
	"github.com/marketops/leadbridge/internal/domain"
	"github.com/marketops/leadbridge/internal/platform/meta"
)

// MapFields builds the spreadsheet row for a lead. The mapping order
// determines column order; a mapping entry whose field is absent from the
// lead's data yields an empty cell. Missing optional fields are never an
// error — the row always has exactly one cell per mapping entry.
func MapFields(mapping domain.FieldMappings, fieldData []meta.FieldData) []string {
	row := make([]string, 0, len(mapping))
	for _, entry := range mapping {
		value := ""
		for _, field := range fieldData {
			if field.Name == entry.FieldKey {
				if len(field.Values) > 0 {
					value = field.Values[0]
				}
				break
			}
		}
		row = append(row, value)
	}
	return row
}
