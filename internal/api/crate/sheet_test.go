package crate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseCrateSheet(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"NFC UID", "Tipo"},
		{"04a1b2", "7d0c1f3e-8a55-4a8e-9a51-1f0f6f7d2c11"},
		{"", ""},
		{"04C3D4"},
	})

	crates, err := parseCrateSheet(buf)
	require.NoError(t, err)
	require.Len(t, crates, 2)

	assert.Equal(t, "04a1b2", crates[0].NfcUID)
	require.NotNil(t, crates[0].CrateTypeID)
	assert.Equal(t, "7d0c1f3e-8a55-4a8e-9a51-1f0f6f7d2c11", *crates[0].CrateTypeID)
	assert.Equal(t, "04C3D4", crates[1].NfcUID)
	assert.Nil(t, crates[1].CrateTypeID)
}

func TestParseCrateSheet_NoHeader(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{{"AA01"}, {"AA02"}})

	crates, err := parseCrateSheet(buf)
	require.NoError(t, err)
	assert.Len(t, crates, 2)
}

func TestParseCrateSheet_Empty(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{{"NFC"}})

	_, err := parseCrateSheet(buf)
	assert.Error(t, err)
}

func TestParseCrateSheet_NotAWorkbook(t *testing.T) {
	_, err := parseCrateSheet(bytes.NewBufferString("nfc,tipo\n04A1,\n"))
	assert.Error(t, err)
}
