package pdpm

import (
	"reflect"
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func classify(f ClinicalFeatures) Classification {
	return Classify(DefaultTables(), f)
}

func TestClassify_CategoryMapping(t *testing.T) {
	cases := []struct {
		diagnosis string
		want      ClinicalCategory
	}{
		{"Z96.641", CategoryMajorJoint},
		{"M17.11", CategoryOrtho},
		{"S72.001A", CategoryOrtho},
		{"A41.9", CategoryAcuteInfections},
		{"N39.0", CategoryAcuteInfections},
		{"I50.9", CategoryCardiovascular},
		{"I10", CategoryCardiovascular},
		{"J44.1", CategoryPulmonary},
		{"I61.9", CategorySurgeryNeuro},
		{"G81.94", CategorySurgeryNeuro},
	}
	for _, tc := range cases {
		t.Run(tc.diagnosis, func(t *testing.T) {
			c := classify(ClinicalFeatures{PrimaryDiagnosis: tc.diagnosis, FunctionScore: intp(12)})
			if c.ClinicalCategory != tc.want {
				t.Errorf("category = %s, want %s", c.ClinicalCategory, tc.want)
			}
			if len(c.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", c.Warnings)
			}
		})
	}
}

func TestClassify_UnmappedDiagnosis(t *testing.T) {
	c := classify(ClinicalFeatures{PrimaryDiagnosis: "C34.90", FunctionScore: intp(12)})
	if c.ClinicalCategory != CategoryUnclassified {
		t.Errorf("category = %s, want unclassified", c.ClinicalCategory)
	}
	if len(c.Warnings) != 1 || !strings.Contains(c.Warnings[0], "C34.90") {
		t.Errorf("warnings = %v, want one naming the code", c.Warnings)
	}
}

func TestClassify_MissingDiagnosis(t *testing.T) {
	c := classify(ClinicalFeatures{FunctionScore: intp(12)})
	if c.ClinicalCategory != CategoryUnclassified {
		t.Errorf("category = %s, want unclassified", c.ClinicalCategory)
	}
	if len(c.Warnings) != 1 || !strings.Contains(c.Warnings[0], "missing") {
		t.Errorf("warnings = %v, want a missing-diagnosis warning", c.Warnings)
	}
}

func TestClassify_ComorbidityFallback(t *testing.T) {
	c := classify(ClinicalFeatures{
		PrimaryDiagnosis: "C34.90",
		Comorbidities:    []string{"I50.22"},
		FunctionScore:    intp(12),
	})
	if c.ClinicalCategory != CategoryCardiovascular {
		t.Errorf("category = %s, want cardiovascular via comorbidity", c.ClinicalCategory)
	}
}

func TestClassify_TherapyGroupCutPoints(t *testing.T) {
	cases := []struct {
		diagnosis string
		score     int
		want      TherapyGroup
	}{
		{"Z96.641", 0, GroupTA},
		{"Z96.641", 5, GroupTA},
		{"Z96.641", 6, GroupTB},
		{"Z96.641", 9, GroupTB},
		{"Z96.641", 10, GroupTC},
		{"Z96.641", 23, GroupTC},
		{"Z96.641", 24, GroupTD},
		{"M17.11", 4, GroupTE},
		{"M17.11", 24, GroupTH},
		{"I50.9", 4, GroupTI},
		{"I50.9", 12, GroupTK},
		{"G81.94", 8, GroupTN},
		{"G81.94", 24, GroupTP},
	}
	for _, tc := range cases {
		c := classify(ClinicalFeatures{PrimaryDiagnosis: tc.diagnosis, FunctionScore: intp(tc.score)})
		if c.PTGroup != tc.want {
			t.Errorf("%s score %d: PT group = %s, want %s", tc.diagnosis, tc.score, c.PTGroup, tc.want)
		}
		if c.OTGroup != c.PTGroup {
			t.Errorf("%s score %d: OT group %s != PT group %s", tc.diagnosis, tc.score, c.OTGroup, c.PTGroup)
		}
	}
}

func TestClassify_FunctionScoreClamped(t *testing.T) {
	low := classify(ClinicalFeatures{PrimaryDiagnosis: "Z96.641", FunctionScore: intp(-10)})
	if low.PTGroup != GroupTA {
		t.Errorf("negative score: PT group = %s, want TA", low.PTGroup)
	}
	high := classify(ClinicalFeatures{PrimaryDiagnosis: "Z96.641", FunctionScore: intp(99)})
	if high.PTGroup != GroupTD {
		t.Errorf("oversized score: PT group = %s, want TD", high.PTGroup)
	}
}

func TestClassify_MissingFunctionScore(t *testing.T) {
	c := classify(ClinicalFeatures{PrimaryDiagnosis: "Z96.641"})
	// Default assumes moderate dependence, the 10-23 band.
	if c.PTGroup != GroupTC {
		t.Errorf("PT group = %s, want TC from defaulted score", c.PTGroup)
	}
	found := false
	for _, w := range c.Warnings {
		if strings.Contains(w, "function score") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a function-score warning", c.Warnings)
	}
}

func TestClassify_SLPDrivers(t *testing.T) {
	cases := []struct {
		name string
		f    ClinicalFeatures
		want SLPGroup
	}{
		{"no drivers", ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), CognitiveScore: intp(15)}, GroupSLPNone},
		{"swallowing only", ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), CognitiveScore: intp(15), SwallowingDisorder: true}, GroupSA},
		{"feeding tube counts as swallowing", ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), CognitiveScore: intp(15), FeedingTube: true}, GroupSA},
		{"swallowing plus impaired cognition", ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), CognitiveScore: intp(7), SwallowingDisorder: true}, GroupSB},
		{"all three drivers", ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), CognitiveScore: intp(7), SwallowingDisorder: true, Comorbidities: []string{"R47.01"}}, GroupSC},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := classify(tc.f)
			if c.SLPGroup != tc.want {
				t.Errorf("SLP group = %s, want %s", c.SLPGroup, tc.want)
			}
		})
	}
}

func TestClassify_MissingCognitiveScoreWarning(t *testing.T) {
	// No drivers present: the missing screen cannot change the group, so
	// no warning.
	quiet := classify(ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12)})
	for _, w := range quiet.Warnings {
		if strings.Contains(w, "cognitive") {
			t.Errorf("unexpected cognitive warning with no drivers: %v", quiet.Warnings)
		}
	}

	noisy := classify(ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), SwallowingDisorder: true})
	found := false
	for _, w := range noisy.Warnings {
		if strings.Contains(w, "cognitive") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a cognitive-score warning", noisy.Warnings)
	}
}

func TestClassify_NursingGroups(t *testing.T) {
	cases := []struct {
		name string
		f    ClinicalFeatures
		want NursingGroup
	}{
		{"ventilator low function", ClinicalFeatures{PrimaryDiagnosis: "J96.00", FunctionScore: intp(3), Ventilator: true}, GroupES1},
		{"trach higher function", ClinicalFeatures{PrimaryDiagnosis: "J96.00", FunctionScore: intp(14), Tracheostomy: true}, GroupES2},
		{"stroke base group", ClinicalFeatures{PrimaryDiagnosis: "I61.9", FunctionScore: intp(14)}, GroupHBS1},
		{"cardiac independent", ClinicalFeatures{PrimaryDiagnosis: "I50.9", FunctionScore: intp(14)}, GroupHBS2},
		{"cardiac highly dependent", ClinicalFeatures{PrimaryDiagnosis: "I50.9", FunctionScore: intp(8)}, GroupHBS1},
		{"infection base group", ClinicalFeatures{PrimaryDiagnosis: "A41.9", FunctionScore: intp(14)}, GroupLBS2},
		{"infection with depression", ClinicalFeatures{PrimaryDiagnosis: "A41.9", FunctionScore: intp(14), Depression: true}, GroupLBS1},
		{"unclassified default", ClinicalFeatures{PrimaryDiagnosis: "C34.90", FunctionScore: intp(14)}, GroupLBS2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := classify(tc.f)
			if c.NursingGroup != tc.want {
				t.Errorf("nursing group = %s, want %s", c.NursingGroup, tc.want)
			}
		})
	}
}

func TestClassify_NTAScoreDedupes(t *testing.T) {
	c := classify(ClinicalFeatures{
		PrimaryDiagnosis: "M17.11",
		FunctionScore:    intp(12),
		Comorbidities:    []string{"E11.9", "E11.65", "E10.9"},
	})
	// Three diabetes codes count once.
	if c.NTAScore != 3 {
		t.Errorf("NTA score = %d, want 3", c.NTAScore)
	}
}

func TestClassify_NTAScoreUnbounded(t *testing.T) {
	c := classify(ClinicalFeatures{
		PrimaryDiagnosis: "M17.11",
		FunctionScore:    intp(12),
		Comorbidities: []string{
			"J15.9", "A41.9", "E11.9", "J44.1", "N39.0", "I50.9",
			"B20", "G35", "G20", "G81.94", "R47.01", "E46",
		},
		Dialysis:   true,
		Depression: true,
	})
	// 5+6+3+4+4+5+6+6+5+6+5+4+8+3 = 70; well past any 12-point cap.
	if c.NTAScore != 70 {
		t.Errorf("NTA score = %d, want 70", c.NTAScore)
	}
	if c.NTABand != NTABandHigh {
		t.Errorf("NTA band = %s, want 12+", c.NTABand)
	}
}

func TestBandForNTAScore(t *testing.T) {
	cases := []struct {
		score int
		want  NTABand
	}{
		{0, NTABandLow},
		{5, NTABandLow},
		{6, NTABandMedium},
		{11, NTABandMedium},
		{12, NTABandHigh},
		{70, NTABandHigh},
	}
	for _, tc := range cases {
		if got := BandForNTAScore(tc.score); got != tc.want {
			t.Errorf("score %d: band = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestClassify_EstimatedLOS(t *testing.T) {
	cases := []struct {
		name string
		f    ClinicalFeatures
		want int
	}{
		{"major joint", ClinicalFeatures{PrimaryDiagnosis: "Z96.641", FunctionScore: intp(12)}, 12},
		{"unclassified default", ClinicalFeatures{PrimaryDiagnosis: "C34.90", FunctionScore: intp(12)}, 15},
		{"dialysis extends", ClinicalFeatures{PrimaryDiagnosis: "M17.11", FunctionScore: intp(12), Dialysis: true}, 19},
		{"trach and wound vac stack", ClinicalFeatures{PrimaryDiagnosis: "A41.9", FunctionScore: intp(12), Tracheostomy: true, WoundVac: true}, 28},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := classify(tc.f)
			if c.EstimatedLOS != tc.want {
				t.Errorf("estimated LOS = %d, want %d", c.EstimatedLOS, tc.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	f := ClinicalFeatures{
		PrimaryDiagnosis: "I63.9",
		Comorbidities:    []string{"E11.9", "I50.22", "F32.9", "J44.1"},
		FunctionScore:    intp(7),
		CognitiveScore:   intp(10),
		Dialysis:         true,
	}
	first := classify(f)
	for i := 0; i < 50; i++ {
		if got := classify(f); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}
