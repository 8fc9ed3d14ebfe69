package clean

// Standard data file names. Interim and primary copies keep the raw name.
const (
	LookupFile             = "LSOA21_to_UTLA22.csv"
	AreaFile               = "area_sqkm.csv"
	PopulationFile         = "population_data.csv"
	EthnicityFile          = "ethnicity.csv"
	HousingTenureFile      = "housing_tenure.csv"
	QualificationsFile     = "qualification_level.csv"
	EnglishProficiencyFile = "english_proficiency.csv"
	NSSECFile              = "ns-sec.csv"
	RoomsFile              = "rooms.csv"
	CouncilTaxFile         = "council_tax_bands.csv"
	DistanceToSeaFile      = "distance_to_sea.csv"
)

// Cleaned column names shared with aggregation.
const (
	TotalPopulation   = "Age: Total"
	Over15Population  = "Over 15 Population"
	Aged65To84        = "Aged 65 to 84 Population"
	Over85Population  = "85 and over Population"
	AreaSqKm          = "Extent of the Realm (Area in KM2)"
	LSOADensityColumn = "People per square km (LSOA)"
	DistanceToSea     = "Distance to Sea (km)"
	FewRooms          = "few_rooms"
)

const geographyCode = "geography code"

var agedColumns = []string{
	"Age: Aged 15 to 19 years",
	"Age: Aged 20 to 24 years",
	"Age: Aged 25 to 29 years",
	"Age: Aged 30 to 34 years",
	"Age: Aged 35 to 39 years",
	"Age: Aged 40 to 44 years",
	"Age: Aged 45 to 49 years",
	"Age: Aged 50 to 54 years",
	"Age: Aged 55 to 59 years",
	"Age: Aged 60 to 64 years",
	"Age: Aged 65 to 69 years",
	"Age: Aged 70 to 74 years",
	"Age: Aged 75 to 79 years",
	"Age: Aged 80 to 84 years",
	"Age: Aged 85 years and over",
}

// EthnicGroups maps cleaned ethnic group names to their census columns.
// Order of the cleaned names drives aggregation output.
var EthnicGroups = map[string]string{
	"total":           "Ethnic group: Total: All usual residents",
	"black african":   "Ethnic group: Black, Black British, Black Welsh, Caribbean or African: African",
	"black caribbean": "Ethnic group: Black, Black British, Black Welsh, Caribbean or African: Caribbean",
	"bangladeshi":     "Ethnic group: Asian, Asian British or Asian Welsh: Bangladeshi",
	"chinese":         "Ethnic group: Asian, Asian British or Asian Welsh: Chinese",
	"indian":          "Ethnic group: Asian, Asian British or Asian Welsh: Indian",
	"pakistani":       "Ethnic group: Asian, Asian British or Asian Welsh: Pakistani",
	"mixed":           "Ethnic group: Mixed or Multiple ethnic groups",
	"white":           "Ethnic group: White",
}

// Specs returns the cleaning spec for every standard dataset.
func Specs() []Spec {
	ethnicityKeep := make(map[string]string, len(EthnicGroups))
	for cleaned, raw := range EthnicGroups {
		ethnicityKeep[raw] = cleaned
	}

	return []Spec{
		{
			File:       PopulationFile,
			CodeColumn: geographyCode,
			Keep: map[string]string{
				"Age: Total":                  TotalPopulation,
				"Age: Aged 85 years and over": Over85Population,
			},
			Derived: []Derived{
				{Name: Over15Population, Sources: agedColumns},
				{Name: Aged65To84, Sources: agedColumns[10:14]},
			},
			Merge: &Merge{
				File:       AreaFile,
				CodeColumn: "LSOA21CD",
				Keep:       map[string]string{"Area Sq Km": AreaSqKm},
			},
			Ratios: []Ratio{
				{Name: LSOADensityColumn, Numerator: TotalPopulation, Denominator: AreaSqKm},
			},
		},
		{
			File:       EthnicityFile,
			CodeColumn: geographyCode,
			Keep:       ethnicityKeep,
		},
		{
			File:       HousingTenureFile,
			CodeColumn: geographyCode,
			Keep: map[string]string{
				"Tenure of household: Total: All households": "total",
				"Tenure of household: Owned":                 "home_owners",
				"Tenure of household: Social rented":         "social_renters",
			},
		},
		{
			File:       QualificationsFile,
			CodeColumn: geographyCode,
			Keep: map[string]string{
				"Highest level of qualification: Total: All usual residents aged 16 years and over": "total",
				"Highest level of qualification: Level 4 qualifications and above":                  "higher_level_qualifications",
			},
		},
		{
			File:       EnglishProficiencyFile,
			CodeColumn: geographyCode,
			Keep: map[string]string{
				"Proficiency in English language: Total: All usual residents aged 3 years and over": "total",
			},
			Derived: []Derived{
				{
					Name: "low_english_proficiency",
					Sources: []string{
						"Proficiency in English language: Main language is not English (English or Welsh in Wales): Cannot speak English well",
						"Proficiency in English language: Main language is not English (English or Welsh in Wales): Cannot speak English",
					},
				},
			},
		},
		{
			File:       NSSECFile,
			CodeColumn: geographyCode,
			Keep: map[string]string{
				"National Statistics Socio-economic Classification (NS-SEC): Total: All usual residents aged 16 years and over": "total",
				"National Statistics Socio-economic Classification (NS-SEC): L15 Full-time students":                            "student",
			},
			Derived: []Derived{
				{
					Name: "routine_manual",
					Sources: []string{
						"National Statistics Socio-economic Classification (NS-SEC): L10 and L11 Lower supervisory and technical occupations",
						"National Statistics Socio-economic Classification (NS-SEC): L12 Semi-routine occupations",
						"National Statistics Socio-economic Classification (NS-SEC): L13 Routine occupations",
					},
				},
			},
		},
		{
			File:       RoomsFile,
			CodeColumn: geographyCode,
			Keep: map[string]string{
				"Number of rooms (VOA): Total: All households": "total",
			},
			PrefixSums: []PrefixSum{
				{Name: FewRooms, Prefix: "Number of rooms (VOA): ", Below: 4},
			},
		},
		{
			File:       CouncilTaxFile,
			CodeColumn: "ecode",
			Keep: map[string]string{
				"total_properties": "total",
			},
			Derived: []Derived{
				{
					Name:    "lower_council_tax_bands",
					Sources: []string{"band_a", "band_b", "band_c", "band_d"},
				},
			},
		},
		{
			File:       DistanceToSeaFile,
			CodeColumn: "LSOA21CD",
			Keep: map[string]string{
				"distance to sea km": DistanceToSea,
			},
		},
	}
}
