package table

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sheetCSV = "\ufeffOFID Projects,,,,\n" +
	",,,Water,\n" +
	"Atoll,Locality,Population,MapLink,wat_Funding ,har_hase \n" +
	"HA,Dhidhdhoo,\"4,200\",\"https://www.google.com/maps/@7.0113,72.9986,15z\",OFID,Phase 1\n" +
	"K,Maafushi,nan,,NaN,\n" +
	",,,,,\n" +
	"L,Fonadhoo,2100\n"

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sheetCSV), "")
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Skipped)
	assert.Equal(t, []string{"Atoll", "Locality", "Population", "MapLink", "wat_Funding", "har_hase"}, tbl.Header)
	require.Len(t, tbl.Rows, 4)

	first := tbl.Rows[0]
	assert.Equal(t, 4, first.Line)
	assert.Equal(t, "HA", first.Get("Atoll").String())
	assert.Equal(t, "4,200", first.Get("Population").String())
	assert.Equal(t, "https://www.google.com/maps/@7.0113,72.9986,15z", first.Get("MapLink").String())
	assert.Equal(t, "OFID", first.Get("wat_Funding").String())
	assert.Equal(t, "Phase 1", first.First("har_Phase", "har_hase").String())

	second := tbl.Rows[1]
	assert.False(t, second.Get("Population").Valid())
	assert.False(t, second.Get("MapLink").Valid())
	assert.False(t, second.Get("wat_Funding").Valid())

	assert.True(t, tbl.Rows[2].Empty())

	short := tbl.Rows[3]
	assert.Equal(t, "2100", short.Get("Population").String())
	assert.False(t, short.Get("MapLink").Valid())
	assert.False(t, short.Get("NoSuchColumn").Valid())
	assert.True(t, tbl.Has("Locality"))
	assert.False(t, tbl.Has("Area (in sq km)"))
}

func TestReadCSVHeaderNotFound(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b,c\n1,2,3\n"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHeaderNotFound))
}

func TestReadCSVCustomMarker(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("title\r\nAtoll;x\r\nRegion,Island\r\nK,Male\r\n"), "Region,Island")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Skipped)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Male", tbl.Rows[0].Get("Island").String())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  string
	}{
		{"", false, ""},
		{"   ", false, ""},
		{"nan", false, ""},
		{"NaN", false, ""},
		{" None ", false, ""},
		{"null", false, ""},
		{" OFID ", true, "OFID"},
		{"0", true, "0"},
		{"Nanoo", true, "Nanoo"},
		// decomposed e + combining acute becomes a single code point
		{"Cafe\u0301", true, "Caf\u00e9"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			v := Normalize(tc.raw)
			assert.Equal(t, tc.valid, v.Valid())
			assert.Equal(t, tc.want, v.String())
			if tc.valid {
				require.NotNil(t, v.Ptr())
				assert.Equal(t, tc.want, *v.Ptr())
			} else {
				assert.Nil(t, v.Ptr())
			}
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"OFID Infrastructure Projects"},
		{"Atoll", "Locality", "Population", "MapLink"},
		{"GA", "Villingili", "3500", "7.0, 73.0"},
		{},
		{"S", "Hithadhoo", "nan", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := ReadXLSX(&buf, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Skipped)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Villingili", tbl.Rows[0].Get("Locality").String())
	assert.Equal(t, 3, tbl.Rows[0].Line)
	assert.Equal(t, "Hithadhoo", tbl.Rows[1].Get("Locality").String())
	assert.False(t, tbl.Rows[1].Get("Population").Valid())
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sheet.csv")
	require.NoError(t, os.WriteFile(p, []byte(sheetCSV), 0o600))

	tbl, err := Load(nil, p, Options{})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 4)

	_, err = Load(nil, filepath.Join(dir, "missing.csv"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	tbl, err := Load(srv.Client(), srv.URL+"/export.csv?gid=0", Options{})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 4)

	_, err = Load(srv.Client(), srv.URL+"/gone.csv", Options{})
	assert.Error(t, err)
}

func TestIsWorkbook(t *testing.T) {
	assert.True(t, isWorkbook("data/OFID.xlsx"))
	assert.True(t, isWorkbook("https://example.org/files/OFID.XLSX?dl=1"))
	assert.False(t, isWorkbook("OFIDtest1Sheet1.csv"))
	assert.False(t, isWorkbook("https://example.org/export?format=csv"))
}
