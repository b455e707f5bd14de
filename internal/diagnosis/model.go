package diagnosis

import (
	"time"

	"github.com/google/uuid"
)

// BaseLanguage is the canonical language the advisor always answers in.
// Translation to the farmer's language happens as a separate, later stage.
const BaseLanguage = "en"

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

type CropType string

const (
	CropMaize   CropType = "maize"
	CropBean    CropType = "bean"
	CropTomato  CropType = "tomato"
	CropPotato  CropType = "potato"
	CropRice    CropType = "rice"
	CropWheat   CropType = "wheat"
	CropCassava CropType = "cassava"
	CropBanana  CropType = "banana"
	CropMango   CropType = "mango"
	CropCabbage CropType = "cabbage"
)

type FarmerExperience string

const (
	ExperienceBeginner     FarmerExperience = "beginner"
	ExperienceIntermediate FarmerExperience = "intermediate"
	ExperienceExperienced  FarmerExperience = "experienced"
)

type Season string

const (
	SeasonDry      Season = "dry_season"
	SeasonRainy    Season = "rainy_season"
	SeasonPlanting Season = "planting"
)

// Request is the immutable input to one pipeline run.
type Request struct {
	Image    []byte
	Question string
	Language string

	// Optional structured context from the farmer.
	CropType         CropType
	SeverityEstimate Severity
	AffectedArea     string
	FarmerExperience FarmerExperience
	Season           Season
}

// Response is the externally visible result of a pipeline run. Diagnosis is
// the translated text and always equals DiagnosisOriginal when the target
// language is the base language or translation degraded.
type Response struct {
	Status string `json:"status"`

	Diagnosis         string `json:"diagnosis"`
	DiagnosisOriginal string `json:"diagnosis_original"`

	DiseaseName        string   `json:"disease_name,omitempty"`
	Severity           Severity `json:"severity"`
	AffectedPlantParts []string `json:"affected_plant_parts,omitempty"`

	ImmediateActions     []string `json:"immediate_actions,omitempty"`
	OngoingActions       []string `json:"ongoing_actions,omitempty"`
	PreventionStrategies []string `json:"prevention_strategies,omitempty"`

	TimelineToRecovery string `json:"timeline_to_recovery,omitempty"`
	YieldImpact        string `json:"yield_impact,omitempty"`
	ReplantingNeeded   bool   `json:"replanting_needed"`

	AudioBase64 string `json:"audio_base64,omitempty"`
	Language    string `json:"language"`

	Tags []string `json:"tags"`
}

// Event is the append-only analytics record written once per pipeline that
// reached the advisory stage. It is never mutated after being handed to the
// sink.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	DetectedTags []string  `json:"detected_tags"`
	Query        string    `json:"query"`
	Language     string    `json:"language"`
	CropType     string    `json:"crop_type"`
	Severity     string    `json:"severity"`
	DiseaseName  string    `json:"disease_name"`
	Diagnosis    string    `json:"diagnosis"`
	Experience   string    `json:"farmer_experience"`
}

// Record is one entry in a farmer's history ledger.
type Record struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Query          string    `json:"query" db:"query"`
	Language       string    `json:"language" db:"language"`
	DetectedTags   []string  `json:"detected_tags" db:"detected_tags"`
	DiagnosisText  string    `json:"diagnosis_text" db:"diagnosis_text"`
	TranslatedText string    `json:"translated_text" db:"translated_text"`
	AudioBase64    string    `json:"audio_base64,omitempty" db:"audio_base64"`
	DiseaseName    string    `json:"disease_name,omitempty" db:"disease_name"`
	Severity       Severity  `json:"severity" db:"severity"`
	CreatedAt      time.Time `json:"timestamp" db:"created_at"`
}

// HistoryStats summarizes one farmer's ledger.
type HistoryStats struct {
	TotalDiagnoses int            `json:"total_diagnoses"`
	LanguagesUsed  map[string]int `json:"languages_used"`
	TopTags        []TagCount     `json:"top_tags"`
	FirstDiagnosis *time.Time     `json:"first_diagnosis,omitempty"`
	LastDiagnosis  *time.Time     `json:"last_diagnosis,omitempty"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// severityInfo carries the human description and the yield impact estimate
// surfaced in responses.
type severityInfo struct {
	Description string
	YieldImpact string
}

var severityTable = map[Severity]severityInfo{
	SeverityMild:     {Description: "Early stage, treatable", YieldImpact: "under 10% if treated promptly"},
	SeverityModerate: {Description: "Active disease, treatment needed", YieldImpact: "10-20% if untreated"},
	SeveritySevere:   {Description: "Advanced disease, urgent action", YieldImpact: "30-60% if untreated"},
}

// SeverityInfo returns the description/yield-impact pair for a level,
// defaulting to moderate for unknown values.
func SeverityInfo(s Severity) (string, string) {
	info, ok := severityTable[s]
	if !ok {
		info = severityTable[SeverityModerate]
	}
	return info.Description, info.YieldImpact
}

// Severities lists the levels in escalation order.
func Severities() []Severity {
	return []Severity{SeverityMild, SeverityModerate, SeveritySevere}
}

// Crops lists the supported crop types.
func Crops() []CropType {
	return []CropType{
		CropMaize, CropBean, CropTomato, CropPotato, CropRice,
		CropWheat, CropCassava, CropBanana, CropMango, CropCabbage,
	}
}

// ExperienceLevels lists the farmer experience tiers.
func ExperienceLevels() []FarmerExperience {
	return []FarmerExperience{ExperienceBeginner, ExperienceIntermediate, ExperienceExperienced}
}

// supportedLanguages are the codes the speech synthesizer has voices for.
// Anything else falls back to the base language.
var supportedLanguages = map[string]bool{
	"en": true, "sw": true, "ar": true, "fr": true, "es": true, "pt": true,
}

// NormalizeLanguage maps an absent or unrecognized code to the base language.
func NormalizeLanguage(code string) string {
	if supportedLanguages[code] {
		return code
	}
	return BaseLanguage
}
