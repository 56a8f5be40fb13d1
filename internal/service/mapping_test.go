package service

import (
	"reflect"
	"testing"

	"github.com/marketops/leadbridge/internal/domain"
	"github.com/marketops/leadbridge/internal/platform/meta"
)

func TestMapFields(t *testing.T) {
	mapping := domain.FieldMappings{
		{FieldKey: "email", Column: "Email"},
		{FieldKey: "full_name", Column: "Name"},
		{FieldKey: "phone_number", Column: "Phone"},
		{FieldKey: "company", Column: "Company"},
	}

	testCases := []struct {
		name      string
		fieldData []meta.FieldData
		want      []string
	}{
		{
			name: "all fields present",
			fieldData: []meta.FieldData{
				{Name: "email", Values: []string{"a@b.com"}},
				{Name: "full_name", Values: []string{"Ada Lovelace"}},
				{Name: "phone_number", Values: []string{"+4915112345678"}},
				{Name: "company", Values: []string{"Analytical Engines"}},
			},
			want: []string{"a@b.com", "Ada Lovelace", "+4915112345678", "Analytical Engines"},
		},
		{
			name: "missing fields become empty cells",
			fieldData: []meta.FieldData{
				{Name: "email", Values: []string{"a@b.com"}},
				{Name: "company", Values: []string{"Analytical Engines"}},
			},
			want: []string{"a@b.com", "", "", "Analytical Engines"},
		},
		{
			name:      "no fields at all",
			fieldData: nil,
			want:      []string{"", "", "", ""},
		},
		{
			name: "empty values slice",
			fieldData: []meta.FieldData{
				{Name: "email", Values: []string{}},
				{Name: "full_name", Values: []string{"Ada Lovelace"}},
			},
			want: []string{"", "Ada Lovelace", "", ""},
		},
		{
			name: "first value wins",
			fieldData: []meta.FieldData{
				{Name: "email", Values: []string{"first@b.com", "second@b.com"}},
			},
			want: []string{"first@b.com", "", "", ""},
		},
		{
			name: "extra lead fields are ignored",
			fieldData: []meta.FieldData{
				{Name: "email", Values: []string{"a@b.com"}},
				{Name: "unmapped_custom_question", Values: []string{"yes"}},
			},
			want: []string{"a@b.com", "", "", ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapFields(mapping, tc.fieldData)
			if len(got) != len(mapping) {
				t.Fatalf("row has %d cells, want one per mapping entry (%d)", len(got), len(mapping))
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("MapFields() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapFieldsEmptyMapping(t *testing.T) {
	got := MapFields(nil, []meta.FieldData{{Name: "email", Values: []string{"a@b.com"}}})
	if len(got) != 0 {
		t.Errorf("MapFields(nil mapping) = %v, want empty row", got)
	}
}
