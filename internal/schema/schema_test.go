package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/paveg/tabula/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected schema.Type
	}{
		{"integers", []string{"1", "2", " 3 ", ""}, schema.Integer},
		{"floats", []string{"1.5", "2", "3.25"}, schema.Float},
		{"decimal comma", []string{"1,5", "2,25"}, schema.Float},
		{"currency and thousands", []string{"$1,234.50", "$99.00"}, schema.Float},
		{"european grouping", []string{"1.234,50 €", "12,00 €"}, schema.Float},
		{"grouped integers", []string{"1 234", "5 000"}, schema.Integer},
		{"percent", []string{"12%", "7.5%"}, schema.Float},
		{"booleans", []string{"true", "FALSE", "True"}, schema.Boolean},
		{"codes stay strings", []string{"A12", "B7"}, schema.String},
		{"dates stay strings", []string{"2024-01-05", "2024-02-01"}, schema.String},
		{"versions stay strings", []string{"1.2.3", "2.0.1"}, schema.String},
		{"addresses stay strings", []string{"10.0.0.1", "192.168.1.20"}, schema.String},
		{"dotted dates stay strings", []string{"2023.01.05", "2024.12.31"}, schema.String},
		{"dotted thousands", []string{"1.234.567", "2.000.000"}, schema.Integer},
		{"mixed text", []string{"1", "two"}, schema.String},
		{"all empty", []string{"", "  "}, schema.String},
		{"no values", nil, schema.String},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, schema.Infer(tt.values))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"42", 42, true},
		{"-3.5", -3.5, true},
		{"1,5", 1.5, true},
		{"1.234.567", 1234567, true},
		{"1,234,567", 1234567, true},
		{"1.234,56", 1234.56, true},
		{"1.234.567,5", 1234567.5, true},
		{"1.2.3", 0, false},
		{"10.0.0.1", 0, false},
		{"1,23,456", 0, false},
		{"12,34.5", 0, false},
		{"1.234.56", 0, false},
		{"1,234.56", 1234.56, true},
		{"€ 12", 12, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"12 kg", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := schema.ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}

func TestParseInteger(t *testing.T) {
	i, ok := schema.ParseInteger("1 200")
	require.True(t, ok)
	assert.Equal(t, int64(1200), i)

	_, ok = schema.ParseInteger("12.5")
	assert.False(t, ok)
}

func TestParseCell(t *testing.T) {
	v, ok := schema.ParseCell("12", schema.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(12), v)

	v, ok = schema.ParseCell("yes", schema.Boolean)
	assert.False(t, ok)
	assert.Nil(t, v)

	v, ok = schema.ParseCell("  ", schema.String)
	assert.False(t, ok)
	assert.Nil(t, v)

	v, ok = schema.ParseCell("East", schema.String)
	require.True(t, ok)
	assert.Equal(t, "East", v)
}

func TestParseType(t *testing.T) {
	for name, expected := range map[string]schema.Type{
		"Int64":   schema.Integer,
		"float":   schema.Float,
		"BOOL":    schema.Boolean,
		"utf8":    schema.String,
		" text ":  schema.String,
		"number":  schema.Float,
		"integer": schema.Integer,
	} {
		got, ok := schema.ParseType(name)
		require.True(t, ok, name)
		assert.Equal(t, expected, got, name)
	}

	_, ok := schema.ParseType("date")
	assert.False(t, ok)
}

func TestType_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]schema.Type{"amount": schema.Float})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"float"}`, string(data))

	var decoded map[string]schema.Type
	require.NoError(t, json.Unmarshal([]byte(`{"qty":"int"}`), &decoded))
	assert.Equal(t, schema.Integer, decoded["qty"])

	assert.Error(t, json.Unmarshal([]byte(`{"qty":"date"}`), &decoded))
	assert.True(t, schema.Float.IsNumeric())
	assert.False(t, schema.Boolean.IsNumeric())
}

func TestType_Valid(t *testing.T) {
	for _, typ := range []schema.Type{schema.String, schema.Integer, schema.Float, schema.Boolean} {
		assert.True(t, typ.Valid(), typ.String())
	}
	assert.False(t, schema.Type(42).Valid())
	assert.Equal(t, "type(42)", schema.Type(42).String())
}
