package pdpm

// Tables holds the static lookup data the classifier runs on. Callers pass
// tables explicitly so evaluations stay reproducible when the data is
// revised; DefaultTables returns the bundled CMS-derived set.
type Tables struct {
	// CategoryPrefixes maps each clinical category to the ICD-10 prefixes
	// that select it. Prefix matching, first category wins in the fixed
	// iteration order below.
	CategoryPrefixes map[ClinicalCategory][]string

	// NTAPoints maps condition names to their ancillary-needs point
	// values; NTAPrefixes maps ICD-10 prefixes to those condition names.
	NTAPoints   map[string]int
	NTAPrefixes map[string]string

	// SLPPrefixes are ICD-10 prefixes indicating speech-language drivers.
	SLPPrefixes []string

	// BaseLOSByCategory seeds the length-of-stay estimate per clinical
	// category; DefaultLOS covers the sentinel.
	BaseLOSByCategory map[ClinicalCategory]int
	DefaultLOS        int
}

// categoryOrder fixes the iteration order for prefix matching so that
// classification is deterministic regardless of map iteration.
var categoryOrder = []ClinicalCategory{
	CategoryMajorJoint,
	CategoryOrtho,
	CategoryAcuteInfections,
	CategoryCardiovascular,
	CategoryPulmonary,
	CategorySurgeryNeuro,
}

// DefaultTables returns the bundled classification data.
func DefaultTables() Tables {
	return Tables{
		CategoryPrefixes: map[ClinicalCategory][]string{
			CategoryMajorJoint:      {"Z96.6", "M96.6", "Z47.1", "T84"},
			CategoryOrtho:           {"M16", "M17", "M19", "M25", "M54", "S72", "S82"},
			CategoryAcuteInfections: {"A40", "A41", "J15", "J18", "L03", "N39.0"},
			CategoryCardiovascular:  {"I50", "I48", "I21", "I63", "I25", "I10"},
			CategoryPulmonary:       {"J44", "J96", "J45", "J81"},
			CategorySurgeryNeuro:    {"I60", "I61", "I62", "G81", "G83"},
		},
		NTAPoints: map[string]int{
			"pneumonia":          5,
			"septicemia":         6,
			"diabetes":           3,
			"copd":               4,
			"uti":                4,
			"chf":                5,
			"dialysis":           8,
			"hiv":                6,
			"multiple_sclerosis": 6,
			"parkinsons":         5,
			"hemiplegia":         6,
			"aphasia":            5,
			"malnutrition":       4,
			"depression":         3,
			"bipolar":            4,
			"schizophrenia":      4,
		},
		NTAPrefixes: map[string]string{
			"J15":    "pneumonia",
			"J18":    "pneumonia",
			"A40":    "septicemia",
			"A41":    "septicemia",
			"E10":    "diabetes",
			"E11":    "diabetes",
			"J44":    "copd",
			"N39.0":  "uti",
			"I50":    "chf",
			"B20":    "hiv",
			"G35":    "multiple_sclerosis",
			"G20":    "parkinsons",
			"G81":    "hemiplegia",
			"R47.01": "aphasia",
			"E46":    "malnutrition",
			"F32":    "depression",
			"F31":    "bipolar",
			"F20":    "schizophrenia",
		},
		SLPPrefixes: []string{"R13", "R47", "R48", "F80", "I69"},
		BaseLOSByCategory: map[ClinicalCategory]int{
			CategoryMajorJoint:      12,
			CategoryOrtho:           14,
			CategoryAcuteInfections: 18,
			CategorySurgeryNeuro:    18,
			CategoryCardiovascular:  16,
			CategoryPulmonary:       16,
		},
		DefaultLOS: 15,
	}
}

// therapyCategory collapses the six clinical categories into the four
// therapy case-mix columns of the PT/OT group table.
type therapyCategory int

const (
	therapyMajorJoint therapyCategory = iota
	therapyOtherOrtho
	therapyMedical
	therapyNonOrthoNeuro
)

func therapyCategoryFor(c ClinicalCategory) therapyCategory {
	switch c {
	case CategoryMajorJoint:
		return therapyMajorJoint
	case CategoryOrtho:
		return therapyOtherOrtho
	case CategorySurgeryNeuro:
		return therapyNonOrthoNeuro
	default:
		return therapyMedical
	}
}

// therapyGroupTable crosses the collapsed therapy category with the four
// independence bands (0-5, 6-9, 10-23, 24).
var therapyGroupTable = [4][4]TherapyGroup{
	therapyMajorJoint:    {GroupTA, GroupTB, GroupTC, GroupTD},
	therapyOtherOrtho:    {GroupTE, GroupTF, GroupTG, GroupTH},
	therapyMedical:       {GroupTI, GroupTJ, GroupTK, GroupTL},
	therapyNonOrthoNeuro: {GroupTM, GroupTN, GroupTO, GroupTP},
}

func independenceBand(score int) int {
	switch {
	case score <= 5:
		return 0
	case score <= 9:
		return 1
	case score <= 23:
		return 2
	default:
		return 3
	}
}

// nursingCategoryGroups maps clinical categories to their base nursing
// group before the dependence and depression adjustments.
var nursingCategoryGroups = map[ClinicalCategory]NursingGroup{
	CategorySurgeryNeuro:    GroupHBS1,
	CategoryMajorJoint:      GroupHBS1,
	CategoryCardiovascular:  GroupHBS2,
	CategoryPulmonary:       GroupHBS2,
	CategoryOrtho:           GroupLBS1,
	CategoryAcuteInfections: GroupLBS2,
}
