package domain_models

import "time"

type FormField string

const (
	FieldAge            FormField = "age"
	FieldSex            FormField = "sex"
	FieldChestPainType  FormField = "chestPainType"
	FieldRestingBP      FormField = "restingBP"
	FieldCholesterol    FormField = "cholesterol"
	FieldFastingBS      FormField = "fastingBS"
	FieldRestingECG     FormField = "restingECG"
	FieldMaxHR          FormField = "maxHR"
	FieldExerciseAngina FormField = "exerciseAngina"
	FieldOldpeak        FormField = "oldpeak"
	FieldSTSlope        FormField = "stSlope"
)

// FormFields lists every field the form must carry, in intake order.
var FormFields = []FormField{
	FieldAge, FieldSex, FieldChestPainType,
	FieldRestingBP, FieldCholesterol, FieldFastingBS, FieldMaxHR,
	FieldRestingECG, FieldExerciseAngina, FieldOldpeak, FieldSTSlope,
}

// AssessmentForm is the partially filled intake form. A nil field has not
// been answered yet.
type AssessmentForm struct {
	Age            *int     `json:"age"`
	Sex            *string  `json:"sex"`
	ChestPainType  *int     `json:"chestPainType"`
	RestingBP      *int     `json:"restingBP"`
	Cholesterol    *int     `json:"cholesterol"`
	FastingBS      *int     `json:"fastingBS"`
	RestingECG     *int     `json:"restingECG"`
	MaxHR          *int     `json:"maxHR"`
	ExerciseAngina *bool    `json:"exerciseAngina"`
	Oldpeak        *float64 `json:"oldpeak"`
	STSlope        *int     `json:"stSlope"`
}

// Merge returns f with every non-nil field of partial copied over it.
func (f AssessmentForm) Merge(partial AssessmentForm) AssessmentForm {
	if partial.Age != nil {
		f.Age = partial.Age
	}
	if partial.Sex != nil {
		f.Sex = partial.Sex
	}
	if partial.ChestPainType != nil {
		f.ChestPainType = partial.ChestPainType
	}
	if partial.RestingBP != nil {
		f.RestingBP = partial.RestingBP
	}
	if partial.Cholesterol != nil {
		f.Cholesterol = partial.Cholesterol
	}
	if partial.FastingBS != nil {
		f.FastingBS = partial.FastingBS
	}
	if partial.RestingECG != nil {
		f.RestingECG = partial.RestingECG
	}
	if partial.MaxHR != nil {
		f.MaxHR = partial.MaxHR
	}
	if partial.ExerciseAngina != nil {
		f.ExerciseAngina = partial.ExerciseAngina
	}
	if partial.Oldpeak != nil {
		f.Oldpeak = partial.Oldpeak
	}
	if partial.STSlope != nil {
		f.STSlope = partial.STSlope
	}
	return f
}

// Clear returns f with the named fields reset to nil.
func (f AssessmentForm) Clear(fields ...FormField) AssessmentForm {
	for _, field := range fields {
		switch field {
		case FieldAge:
			f.Age = nil
		case FieldSex:
			f.Sex = nil
		case FieldChestPainType:
			f.ChestPainType = nil
		case FieldRestingBP:
			f.RestingBP = nil
		case FieldCholesterol:
			f.Cholesterol = nil
		case FieldFastingBS:
			f.FastingBS = nil
		case FieldRestingECG:
			f.RestingECG = nil
		case FieldMaxHR:
			f.MaxHR = nil
		case FieldExerciseAngina:
			f.ExerciseAngina = nil
		case FieldOldpeak:
			f.Oldpeak = nil
		case FieldSTSlope:
			f.STSlope = nil
		}
	}
	return f
}

func (f AssessmentForm) Has(field FormField) bool {
	switch field {
	case FieldAge:
		return f.Age != nil
	case FieldSex:
		return f.Sex != nil
	case FieldChestPainType:
		return f.ChestPainType != nil
	case FieldRestingBP:
		return f.RestingBP != nil
	case FieldCholesterol:
		return f.Cholesterol != nil
	case FieldFastingBS:
		return f.FastingBS != nil
	case FieldRestingECG:
		return f.RestingECG != nil
	case FieldMaxHR:
		return f.MaxHR != nil
	case FieldExerciseAngina:
		return f.ExerciseAngina != nil
	case FieldOldpeak:
		return f.Oldpeak != nil
	case FieldSTSlope:
		return f.STSlope != nil
	}
	return false
}

// Missing lists unanswered fields in intake order. Only nil counts as
// missing; an empty string for sex is an answer.
func (f AssessmentForm) Missing() []FormField {
	var out []FormField
	for _, field := range FormFields {
		if !f.Has(field) {
			out = append(out, field)
		}
	}
	return out
}

func (f AssessmentForm) IsComplete() bool {
	return len(f.Missing()) == 0
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// AssessmentResult is produced once per successful submission and never
// modified afterwards.
type AssessmentResult struct {
	ID              string             `json:"id"`
	CheckID         string             `json:"checkId"`
	CreatedAt       time.Time          `json:"createdAt"`
	Age             int                `json:"age"`
	Sex             string             `json:"sex"`
	RiskLevel       RiskLevel          `json:"riskLevel"`
	Confidence      float64            `json:"confidence"`
	Probabilities   map[string]float64 `json:"probabilities"`
	Recommendations []string           `json:"recommendations"`
}

// Clone returns a copy that shares no pointers with f.
func (f AssessmentForm) Clone() AssessmentForm {
	return AssessmentForm{
		Age:            clonePtr(f.Age),
		Sex:            clonePtr(f.Sex),
		ChestPainType:  clonePtr(f.ChestPainType),
		RestingBP:      clonePtr(f.RestingBP),
		Cholesterol:    clonePtr(f.Cholesterol),
		FastingBS:      clonePtr(f.FastingBS),
		RestingECG:     clonePtr(f.RestingECG),
		MaxHR:          clonePtr(f.MaxHR),
		ExerciseAngina: clonePtr(f.ExerciseAngina),
		Oldpeak:        clonePtr(f.Oldpeak),
		STSlope:        clonePtr(f.STSlope),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone copies the map and slice so the result can be handed out freely.
func (r AssessmentResult) Clone() AssessmentResult {
	if r.Probabilities != nil {
		probs := make(map[string]float64, len(r.Probabilities))
		for k, v := range r.Probabilities {
			probs[k] = v
		}
		r.Probabilities = probs
	}
	r.Recommendations = append([]string(nil), r.Recommendations...)
	return r
}
