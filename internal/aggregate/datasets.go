package aggregate

import (
	"sort"

	"github.com/localgov-analytics/peers-cli/internal/clean"
)

// Per-LA output column names.
const (
	DensityColumn  = "People per square km"
	SparsityColumn = "Sparsity (% population living in low density areas)"
)

// Datasets returns the aggregation settings for every standard dataset.
func Datasets() []Dataset {
	var ethnicGroups []string
	for name := range clean.EthnicGroups {
		if name != "total" {
			ethnicGroups = append(ethnicGroups, name)
		}
	}
	sort.Strings(ethnicGroups)

	ethnicityRatios := make([]Ratio, 0, len(ethnicGroups))
	for _, g := range ethnicGroups {
		ethnicityRatios = append(ethnicityRatios, Ratio{
			Numerator: g, Denominator: "total", Scale: 100, Name: g + " %",
		})
	}

	return []Dataset{
		{
			File: clean.PopulationFile,
			Columns: []string{
				clean.Over15Population,
				clean.Aged65To84,
				clean.Over85Population,
				clean.TotalPopulation,
				clean.AreaSqKm,
			},
			Ratios: []Ratio{
				{Numerator: clean.Aged65To84, Denominator: clean.Over15Population, Scale: 100, Name: clean.Aged65To84 + " %"},
				{Numerator: clean.Over85Population, Denominator: clean.Over15Population, Scale: 100, Name: clean.Over85Population + " %"},
				{Numerator: clean.TotalPopulation, Denominator: clean.AreaSqKm, Scale: 1, Name: DensityColumn},
			},
			Drop: []string{clean.AreaSqKm},
		},
		{
			File:    clean.EthnicityFile,
			Columns: append([]string{"total"}, ethnicGroups...),
			Ratios:  ethnicityRatios,
			Drop:    []string{"total"},
		},
		{
			File:    clean.HousingTenureFile,
			Columns: []string{"total", "home_owners", "social_renters"},
			Ratios: []Ratio{
				{Numerator: "home_owners", Denominator: "total", Scale: 100, Name: "home_owners %"},
				{Numerator: "social_renters", Denominator: "total", Scale: 100, Name: "social_renters %"},
			},
			Drop: []string{"total"},
		},
		{
			File:    clean.EnglishProficiencyFile,
			Columns: []string{"total", "low_english_proficiency"},
			Ratios: []Ratio{
				{Numerator: "low_english_proficiency", Denominator: "total", Scale: 100, Name: "low_english_proficiency %"},
			},
			Drop: []string{"total"},
		},
		{
			File:    clean.QualificationsFile,
			Columns: []string{"total", "higher_level_qualifications"},
			Ratios: []Ratio{
				{Numerator: "higher_level_qualifications", Denominator: "total", Scale: 100, Name: "higher_level_qualifications %"},
			},
			Drop: []string{"total"},
		},
		{
			File:    clean.NSSECFile,
			Columns: []string{"total", "student", "routine_manual"},
			Ratios: []Ratio{
				{Numerator: "student", Denominator: "total", Scale: 100, Name: "student %"},
				{Numerator: "routine_manual", Denominator: "total", Scale: 100, Name: "routine_manual %"},
			},
			Drop: []string{"total"},
		},
		{
			File:    clean.RoomsFile,
			Columns: []string{"total", clean.FewRooms},
			Ratios: []Ratio{
				{Numerator: clean.FewRooms, Denominator: "total", Scale: 100, Name: clean.FewRooms + " %"},
			},
			Drop: []string{"total"},
		},
		{
			File:    clean.CouncilTaxFile,
			Columns: []string{"total", "lower_council_tax_bands"},
			Ratios: []Ratio{
				{Numerator: "lower_council_tax_bands", Denominator: "total", Scale: 100, Name: "lower_council_tax_bands %"},
			},
			Drop: []string{"total"},
		},
		{
			File:    clean.DistanceToSeaFile,
			Columns: []string{clean.DistanceToSea},
			Mean:    true,
		},
	}
}
