package clean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localgov-analytics/peers-cli/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDataset_ProjectRenameAndFilter(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, "tenure.csv",
		"geography code,ignored,Tenure of household: Total: All households,Tenure of household: Owned,Tenure of household: Social rented\n"+
			"E01000001,x,100,60,30\n"+
			"W01000002,x,80,40,20\n"+
			"E01000003,x,200,90,70\n")

	spec := Spec{
		File:       "tenure.csv",
		CodeColumn: "geography code",
		Keep: map[string]string{
			"Tenure of household: Total: All households": "total",
			"Tenure of household: Owned":                 "home_owners",
			"Tenure of household: Social rented":         "social_renters",
		},
	}

	table, err := Dataset(rawDir, interimDir, "LSOA21CD", spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"E01000001", "E01000003"}, table.Codes())
	owners, err := table.Column("home_owners")
	require.NoError(t, err)
	assert.Equal(t, []float64{60, 90}, owners)

	reread, err := model.ReadLSOACSV(filepath.Join(interimDir, "tenure.csv"), "LSOA21CD")
	require.NoError(t, err)
	assert.Equal(t, table.Codes(), reread.Codes())
	assert.ElementsMatch(t, []string{"home_owners", "social_renters", "total"}, reread.ColumnNames())
}

func TestDataset_DerivedSum(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, "prof.csv",
		"geography code,Proficiency in English language: Total: All usual residents aged 3 years and over,"+
			"Proficiency in English language: Main language is not English (English or Welsh in Wales): Cannot speak English well,"+
			"Proficiency in English language: Main language is not English (English or Welsh in Wales): Cannot speak English\n"+
			"E01000001,1000,30,12\n")

	spec := Spec{
		File:       "prof.csv",
		CodeColumn: "geography code",
		Keep: map[string]string{
			"Proficiency in English language: Total: All usual residents aged 3 years and over": "total",
		},
		Derived: []Derived{{
			Name: "low_english_proficiency",
			Sources: []string{
				"Proficiency in English language: Main language is not English (English or Welsh in Wales): Cannot speak English well",
				"Proficiency in English language: Main language is not English (English or Welsh in Wales): Cannot speak English",
			},
		}},
	}

	table, err := Dataset(rawDir, interimDir, "LSOA21CD", spec)
	require.NoError(t, err)

	low, err := table.Column("low_english_proficiency")
	require.NoError(t, err)
	assert.Equal(t, []float64{42}, low)
}

func TestDataset_PrefixSumCountsBandsBelowLimit(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, "rooms.csv",
		"geography code,Number of rooms (VOA): Total: All households,Number of rooms (VOA): 1 room,Number of rooms (VOA): 2 rooms,Number of rooms (VOA): 3 rooms,Number of rooms (VOA): 4 rooms,Number of rooms (VOA): 5 rooms\n"+
			"E01000001,100,5,10,15,40,30\n")

	spec := Spec{
		File:       "rooms.csv",
		CodeColumn: "geography code",
		Keep: map[string]string{
			"Number of rooms (VOA): Total: All households": "total",
		},
		PrefixSums: []PrefixSum{{Name: "few_rooms", Prefix: "Number of rooms (VOA): ", Below: 4}},
	}

	table, err := Dataset(rawDir, interimDir, "LSOA21CD", spec)
	require.NoError(t, err)

	few, err := table.Column("few_rooms")
	require.NoError(t, err)
	assert.Equal(t, []float64{30}, few)
}

func TestDataset_MergeAndRatio(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, "pop.csv",
		"geography code,Age: Total\n"+
			"E01000001,2000\n"+
			"E01000002,900\n")
	writeFile(t, rawDir, "area.csv",
		"LSOA21CD,Area Sq Km\n"+
			"E01000001,4\n"+
			"E01000002,3\n")

	spec := Spec{
		File:       "pop.csv",
		CodeColumn: "geography code",
		Keep:       map[string]string{"Age: Total": TotalPopulation},
		Merge: &Merge{
			File:       "area.csv",
			CodeColumn: "LSOA21CD",
			Keep:       map[string]string{"Area Sq Km": AreaSqKm},
		},
		Ratios: []Ratio{{Name: LSOADensityColumn, Numerator: TotalPopulation, Denominator: AreaSqKm}},
	}

	table, err := Dataset(rawDir, interimDir, "LSOA21CD", spec)
	require.NoError(t, err)

	density, err := table.Column(LSOADensityColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 300}, density)
}

func TestDataset_MergeMissingLSOA(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, "pop.csv", "geography code,Age: Total\nE01000001,2000\n")
	writeFile(t, rawDir, "area.csv", "LSOA21CD,Area Sq Km\nE01000009,4\n")

	spec := Spec{
		File:       "pop.csv",
		CodeColumn: "geography code",
		Keep:       map[string]string{"Age: Total": TotalPopulation},
		Merge: &Merge{
			File:       "area.csv",
			CodeColumn: "LSOA21CD",
			Keep:       map[string]string{"Area Sq Km": AreaSqKm},
		},
	}

	_, err := Dataset(rawDir, interimDir, "LSOA21CD", spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchema)
}

func TestDataset_MissingColumn(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, "bad.csv", "geography code,other\nE01000001,1\n")

	spec := Spec{
		File:       "bad.csv",
		CodeColumn: "geography code",
		Keep:       map[string]string{"absent": "absent"},
	}

	_, err := Dataset(rawDir, interimDir, "LSOA21CD", spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchema)
}

func TestSpecs_CoversEveryStandardDataset(t *testing.T) {
	var files []string
	for _, spec := range Specs() {
		require.NotEmpty(t, spec.CodeColumn, "spec for %s has no code column", spec.File)
		files = append(files, spec.File)
	}
	assert.ElementsMatch(t, []string{
		PopulationFile,
		EthnicityFile,
		HousingTenureFile,
		QualificationsFile,
		EnglishProficiencyFile,
		NSSECFile,
		RoomsFile,
		CouncilTaxFile,
		DistanceToSeaFile,
	}, files)
}

func TestDataset_CouncilTaxLowerBands(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	writeFile(t, rawDir, CouncilTaxFile,
		"ecode,total_properties,band_a,band_b,band_c,band_d,band_e\n"+
			"E01000001,100,10,20,30,10,30\n")

	var councilTax Spec
	for _, spec := range Specs() {
		if spec.File == CouncilTaxFile {
			councilTax = spec
		}
	}
	require.NotEmpty(t, councilTax.File)

	table, err := Dataset(rawDir, interimDir, "LSOA21CD", councilTax)
	require.NoError(t, err)

	lower, err := table.Column("lower_council_tax_bands")
	require.NoError(t, err)
	assert.Equal(t, []float64{70}, lower)
}

func TestLookups_RemovesConfiguredLA(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	keys := model.KeyColumns{Code: "UTLA22CD", Name: "UTLA22NM"}
	writeFile(t, rawDir, LookupFile,
		"LSOA21CD,UTLA22CD,UTLA22NM\n"+
			"E01000001,E09000001,City of London\n"+
			"E01000002,E09000002,Barking and Dagenham\n"+
			"E01000003,E09000002,Barking and Dagenham\n")

	lookup, err := Lookups(rawDir, interimDir, LookupFile, "LSOA21CD", keys, []string{"City of London", "Atlantis"})
	require.NoError(t, err)

	assert.Equal(t, 2, lookup.Len())
	assert.False(t, lookup.HasLA("City of London"))
	assert.True(t, lookup.HasLA("Barking and Dagenham"))

	reread, err := model.ReadLookupCSV(filepath.Join(interimDir, LookupFile), "LSOA21CD", keys)
	require.NoError(t, err)
	assert.Equal(t, 2, reread.Len())
}

func TestLookups_DuplicateLSOA(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	keys := model.KeyColumns{Code: "UTLA22CD", Name: "UTLA22NM"}
	writeFile(t, rawDir, LookupFile,
		"LSOA21CD,UTLA22CD,UTLA22NM\n"+
			"E01000001,E09000001,City of London\n"+
			"E01000001,E09000002,Barking and Dagenham\n")

	_, err := Lookups(rawDir, interimDir, LookupFile, "LSOA21CD", keys, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchema)
}

func TestLookups_CodeNameMismatch(t *testing.T) {
	rawDir := t.TempDir()
	interimDir := t.TempDir()
	keys := model.KeyColumns{Code: "UTLA22CD", Name: "UTLA22NM"}
	writeFile(t, rawDir, LookupFile,
		"LSOA21CD,UTLA22CD,UTLA22NM\n"+
			"E01000001,E09000001,City of London\n"+
			"E01000002,E09000001,Somewhere Else\n")

	_, err := Lookups(rawDir, interimDir, LookupFile, "LSOA21CD", keys, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchema)
}
