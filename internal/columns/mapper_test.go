package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapExactHeaders(t *testing.T) {
	m, err := Map([]string{"Date", "Description", "Amount"}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 0, m[FieldDate].Index)
	assert.Equal(t, 1, m[FieldDescription].Index)
	assert.Equal(t, 2, m[FieldAmount].Index)
	for _, f := range RequiredFields {
		assert.Equal(t, 1.0, m[f].Confidence, "field %s", f)
	}
}

func TestMapSynonymHeaders(t *testing.T) {
	m, err := Map([]string{"Tran Date", "Particulars", "Value"}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 0, m[FieldDate].Index)
	assert.Equal(t, 1, m[FieldDescription].Index)
	assert.Equal(t, 2, m[FieldAmount].Index)
}

func TestMapCompoundHeaders(t *testing.T) {
	m, err := Map([]string{"Processed Date", "Transaction Details", "Transaction Amount"}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 0, m[FieldDate].Index)
	assert.Equal(t, 1, m[FieldDescription].Index)
	assert.Equal(t, 2, m[FieldAmount].Index)
}

func TestMapPositionalFallback(t *testing.T) {
	headers := []string{"Col1", "Col2", "Col3"}
	sample := [][]string{
		{"01/02/2024", "EFTPOS NEW WORLD ALBANY", "-25.50"},
		{"02/02/2024", "SALARY ACME LTD", "2000.00"},
	}

	m, err := Map(headers, sample, "")
	require.NoError(t, err)

	assert.Equal(t, 0, m[FieldDate].Index)
	assert.Equal(t, 1, m[FieldDescription].Index)
	assert.Equal(t, 2, m[FieldAmount].Index)
	for _, f := range RequiredFields {
		assert.Less(t, m[f].Confidence, 0.5, "fallback matches are low confidence")
	}
}

func TestMapMissingFieldFails(t *testing.T) {
	_, err := Map([]string{"Foo", "Bar"}, nil, "")
	require.Error(t, err)

	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.NotEmpty(t, mapErr.Missing)
	assert.Contains(t, err.Error(), "cannot resolve")
}

func TestRegistryLookupByFilename(t *testing.T) {
	r := DefaultRegistry()

	p := r.Lookup("kiwibank-export-march.csv")
	require.NotNil(t, p)
	assert.Equal(t, "kiwibank", p.Name)

	assert.Nil(t, r.Lookup("statement.csv"))
	assert.Nil(t, r.Lookup(""))
}

func TestMapWithBankHint(t *testing.T) {
	// Westpac names the counterparty column "Other Party".
	m, err := Map([]string{"Date", "Amount", "Other Party"}, nil, "westpac-2024.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, m[FieldDescription].Index)
}
