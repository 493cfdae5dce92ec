// Package pdpm implements PDPM case-mix classification: mapping a clinical
// snapshot to therapy, speech, and nursing case-mix groups plus an
// ancillary-needs score. Classification never fails; degraded inputs fall
// back to sentinel values and surface as warnings on the result.
package pdpm

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// defaultFunctionScore is assumed when no independence score was
	// supplied: moderate dependence, middle of the 10-23 band.
	defaultFunctionScore = 12

	// cognitiveImpairmentCutoff marks BIMS-style scores below "intact".
	cognitiveImpairmentCutoff = 13
)

// Classify maps clinical features to a full case-mix classification using
// the given lookup tables. Deterministic and pure; the only side channel is
// the Warnings slice on the result.
func Classify(t Tables, f ClinicalFeatures) Classification {
	var warnings []string

	category, matched := clinicalCategory(t, f.PrimaryDiagnosis, f.Comorbidities)
	if !matched {
		if f.PrimaryDiagnosis == "" {
			warnings = append(warnings, "primary diagnosis missing; using unclassified category")
		} else {
			warnings = append(warnings, fmt.Sprintf("diagnosis %s not in category mapping; using unclassified category", f.PrimaryDiagnosis))
		}
	}

	functionScore := defaultFunctionScore
	if f.FunctionScore != nil {
		functionScore = clampInt(*f.FunctionScore, 0, 24)
	} else {
		warnings = append(warnings, "function score missing; assuming moderate dependence")
	}

	therapy := therapyGroupTable[therapyCategoryFor(category)][independenceBand(functionScore)]

	slp, slpWarn := slpGroup(t, f)
	warnings = append(warnings, slpWarn...)

	nursing := nursingGroup(category, f, functionScore)

	ntaScore := ntaScore(t, f)

	c := Classification{
		PTGroup:          therapy,
		OTGroup:          therapy,
		SLPGroup:         slp,
		NursingGroup:     nursing,
		NTAScore:         ntaScore,
		NTABand:          BandForNTAScore(ntaScore),
		ClinicalCategory: category,
		Warnings:         warnings,
	}
	c.EstimatedLOS = estimateLOS(t, category, f)
	return c
}

// clinicalCategory resolves the first category whose prefix list matches the
// primary diagnosis, falling back to the comorbidity list before giving up.
func clinicalCategory(t Tables, primary string, comorbidities []string) (ClinicalCategory, bool) {
	codes := make([]string, 0, len(comorbidities)+1)
	if primary != "" {
		codes = append(codes, primary)
	}
	codes = append(codes, comorbidities...)

	for _, cat := range categoryOrder {
		for _, code := range codes {
			for _, prefix := range t.CategoryPrefixes[cat] {
				if strings.HasPrefix(code, prefix) {
					return cat, true
				}
			}
		}
	}
	return CategoryUnclassified, false
}

// slpGroup counts the three SLP drivers: a speech-language comorbidity code,
// a swallowing disorder, and cognitive impairment on the screen.
func slpGroup(t Tables, f ClinicalFeatures) (SLPGroup, []string) {
	var warnings []string
	drivers := 0

	if hasSLPComorbidity(t, f.Comorbidities) {
		drivers++
	}
	if f.SwallowingDisorder || f.FeedingTube {
		drivers++
	}
	if f.CognitiveScore != nil {
		if clampInt(*f.CognitiveScore, 0, 15) < cognitiveImpairmentCutoff {
			drivers++
		}
	} else if drivers > 0 {
		// Only warn when the missing screen could have changed the group.
		warnings = append(warnings, "cognitive score missing; SLP group may understate need")
	}

	switch drivers {
	case 0:
		return GroupSLPNone, warnings
	case 1:
		return GroupSA, warnings
	case 2:
		return GroupSB, warnings
	default:
		return GroupSC, warnings
	}
}

func hasSLPComorbidity(t Tables, comorbidities []string) bool {
	for _, code := range comorbidities {
		for _, prefix := range t.SLPPrefixes {
			if strings.HasPrefix(code, prefix) {
				return true
			}
		}
	}
	return false
}

// nursingGroup derives the nursing case-mix group. Extensive services
// dominate; otherwise the clinical category picks the base group and high
// dependence or a depression flag promotes the "2" variant to "1".
func nursingGroup(category ClinicalCategory, f ClinicalFeatures, functionScore int) NursingGroup {
	if f.ExtensiveServices() {
		if functionScore <= 5 {
			return GroupES1
		}
		return GroupES2
	}

	group, ok := nursingCategoryGroups[category]
	if !ok {
		group = GroupLBS2
	}

	highlyDependent := functionScore <= 9
	switch group {
	case GroupHBS2:
		if highlyDependent {
			return GroupHBS1
		}
	case GroupLBS2:
		if highlyDependent || f.Depression {
			return GroupLBS1
		}
	}
	return group
}

// ntaScore sums ancillary-needs points over matched conditions. Each
// condition counts once no matter how many codes or flags select it; the
// total is unbounded.
func ntaScore(t Tables, f ClinicalFeatures) int {
	matched := map[string]bool{}
	for _, code := range f.Comorbidities {
		for prefix, condition := range t.NTAPrefixes {
			if strings.HasPrefix(code, prefix) {
				matched[condition] = true
			}
		}
	}
	if f.Dialysis {
		matched["dialysis"] = true
	}
	if f.Depression {
		matched["depression"] = true
	}

	conditions := make([]string, 0, len(matched))
	for c := range matched {
		conditions = append(conditions, c)
	}
	sort.Strings(conditions)

	score := 0
	for _, c := range conditions {
		score += t.NTAPoints[c]
	}
	return score
}

// estimateLOS produces the default length-of-stay estimate for a referral,
// used when intake has no projected LOS of its own.
func estimateLOS(t Tables, category ClinicalCategory, f ClinicalFeatures) int {
	los, ok := t.BaseLOSByCategory[category]
	if !ok {
		los = t.DefaultLOS
	}
	if f.Dialysis {
		los += 5
	}
	if f.WoundVac {
		los += 3
	}
	if f.Tracheostomy {
		los += 7
	}
	return los
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
