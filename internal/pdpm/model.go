package pdpm

// ClinicalFeatures is the structured clinical snapshot an evaluation starts
// from. It is produced upstream (referral intake), validated at the API
// boundary, and treated as immutable once an evaluation begins.
type ClinicalFeatures struct {
	PrimaryDiagnosis string   `json:"primary_diagnosis"`
	Comorbidities    []string `json:"comorbidities,omitempty"`
	Medications      []string `json:"medications,omitempty"`

	// FunctionScore is a section-GG style independence index (0-24,
	// higher = more independent). CognitiveScore is a BIMS-style screen
	// (0-15, higher = more intact). Both are optional; the classifier
	// falls back to defaults with a warning when absent.
	FunctionScore  *int `json:"function_score,omitempty"`
	CognitiveScore *int `json:"cognitive_score,omitempty"`

	TherapyMinutesPerWeek int `json:"therapy_minutes_per_week,omitempty"`

	IVAntibiotics      bool `json:"iv_antibiotics,omitempty"`
	WoundVac           bool `json:"wound_vac,omitempty"`
	WoundCare          bool `json:"wound_care,omitempty"`
	Tracheostomy       bool `json:"tracheostomy,omitempty"`
	Ventilator         bool `json:"ventilator,omitempty"`
	Dialysis           bool `json:"dialysis,omitempty"`
	Oxygen             bool `json:"oxygen,omitempty"`
	FeedingTube        bool `json:"feeding_tube,omitempty"`
	Bariatric          bool `json:"bariatric,omitempty"`
	Depression         bool `json:"depression,omitempty"`
	SwallowingDisorder bool `json:"swallowing_disorder,omitempty"`
	RecentReadmission  bool `json:"recent_readmission,omitempty"`

	// TransportNeed is empty, "ambulance", or "wheelchair_van".
	TransportNeed string `json:"transport_need,omitempty"`
}

// ClinicalCategory is the coarse diagnosis grouping derived from the primary
// diagnosis ICD-10 prefix mapping.
type ClinicalCategory string

const (
	CategoryMajorJoint      ClinicalCategory = "major_joint"
	CategoryOrtho           ClinicalCategory = "non_surgical_ortho"
	CategoryAcuteInfections ClinicalCategory = "acute_infections"
	CategoryCardiovascular  ClinicalCategory = "cardiovascular"
	CategoryPulmonary       ClinicalCategory = "pulmonary"
	CategorySurgeryNeuro    ClinicalCategory = "surgery_neuro"

	// CategoryUnclassified is the sentinel for diagnoses the mapping does
	// not cover. It still classifies (medical-management treatment), it
	// just carries a warning.
	CategoryUnclassified ClinicalCategory = "unclassified"
)

// TherapyGroup is a PT/OT case-mix group: four collapsed therapy categories
// crossed with four independence bands, TA through TP.
type TherapyGroup string

const (
	GroupTA TherapyGroup = "TA"
	GroupTB TherapyGroup = "TB"
	GroupTC TherapyGroup = "TC"
	GroupTD TherapyGroup = "TD"
	GroupTE TherapyGroup = "TE"
	GroupTF TherapyGroup = "TF"
	GroupTG TherapyGroup = "TG"
	GroupTH TherapyGroup = "TH"
	GroupTI TherapyGroup = "TI"
	GroupTJ TherapyGroup = "TJ"
	GroupTK TherapyGroup = "TK"
	GroupTL TherapyGroup = "TL"
	GroupTM TherapyGroup = "TM"
	GroupTN TherapyGroup = "TN"
	GroupTO TherapyGroup = "TO"
	GroupTP TherapyGroup = "TP"
)

// SLPGroup is the speech-language pathology case-mix group. GroupSLPNone
// means no SLP driver is present.
type SLPGroup string

const (
	GroupSLPNone SLPGroup = "none"
	GroupSA      SLPGroup = "SA"
	GroupSB      SLPGroup = "SB"
	GroupSC      SLPGroup = "SC"
)

// NursingGroup is the nursing case-mix group.
type NursingGroup string

const (
	GroupES1  NursingGroup = "ES1"
	GroupES2  NursingGroup = "ES2"
	GroupHBS1 NursingGroup = "HBS1"
	GroupHBS2 NursingGroup = "HBS2"
	GroupLBS1 NursingGroup = "LBS1"
	GroupLBS2 NursingGroup = "LBS2"
)

// NTABand buckets the ancillary-needs score for rate lookups.
type NTABand string

const (
	NTABandLow    NTABand = "0-5"
	NTABandMedium NTABand = "6-11"
	NTABandHigh   NTABand = "12+"
)

// BandForNTAScore buckets an NTA score. The score itself is unbounded; only
// the band saturates.
func BandForNTAScore(score int) NTABand {
	switch {
	case score >= 12:
		return NTABandHigh
	case score >= 6:
		return NTABandMedium
	default:
		return NTABandLow
	}
}

// Classification is the full case-mix result for one evaluation. Every field
// resolves to an enumeration member or its sentinel; degraded inputs surface
// on Warnings instead of failing the classification.
type Classification struct {
	PTGroup          TherapyGroup     `json:"pt_group"`
	OTGroup          TherapyGroup     `json:"ot_group"`
	SLPGroup         SLPGroup         `json:"slp_group"`
	NursingGroup     NursingGroup     `json:"nursing_group"`
	NTAScore         int              `json:"nta_score"`
	NTABand          NTABand          `json:"nta_band"`
	ClinicalCategory ClinicalCategory `json:"clinical_category"`
	EstimatedLOS     int              `json:"estimated_los"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// ExtensiveServices reports whether the features qualify for the
// extensive-services nursing track.
func (f *ClinicalFeatures) ExtensiveServices() bool {
	return f.Tracheostomy || f.Ventilator || f.Dialysis || f.IVAntibiotics
}
