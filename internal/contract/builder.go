package contract

import (
	"strconv"
	"strings"
)

// Placeholder names of the contract template
const (
	KeyCompanyName    = "company_name"
	KeyCompanyTaxID   = "company_tax_id"
	KeyCompanyRep     = "company_rep"
	KeyCompanyTitle   = "company_title"
	KeyCompanyAddress = "company_address"
	KeyStudentName    = "student_name"

	KeyStartYear  = "s_y"
	KeyStartMonth = "s_m"
	KeyStartDay   = "s_d"
	KeyEndYear    = "e_y"
	KeyEndMonth   = "e_m"
	KeyEndDay     = "e_d"

	KeyDailyStart = "daily_start"
	KeyDailyEnd   = "daily_end"
	KeyDailyHours = "daily_hours"

	KeyTypeLearnCheck = "type_learn_check"
	KeyTypeWorkCheck  = "type_work_check"

	KeyPayNone        = "chk_pay_none"
	KeyPayScholar     = "chk_pay_scholar"
	KeyPayAllowance   = "chk_pay_allowance"
	KeyPayLearnAmount = "pay_learn_amount"
	KeyPayWorkAmount  = "pay_work_amount"
)

// studentKeys holds the name/id placeholders of each roster slot
var studentKeys = [MaxStudents][2]string{
	{"s1_name", "s1_id"},
	{"s2_name", "s2_id"},
	{"s3_name", "s3_id"},
}

// benefitKeys holds the placeholders of one benefit group.
// An empty stipend key means the group has no stipend option.
type benefitKeys struct {
	none, free, paid, stipend, cost string
}

var (
	housingKeys   = benefitKeys{none: "chk_dorm_none", free: "chk_dorm_free", paid: "chk_dorm_paid", cost: "dorm_cost"}
	mealKeys      = benefitKeys{none: "chk_food_none", free: "chk_food_free", paid: "chk_food_paid", cost: "food_cost"}
	transportKeys = benefitKeys{none: "chk_trans_none", free: "chk_trans_free", paid: "chk_trans_paid", stipend: "chk_trans_stipend", cost: "trans_cost"}
)

// RenderContext maps template placeholders to display values.
// Values are strings, except the date parts (int) and daily hours (float64).
type RenderContext map[string]any

// Strings returns every value formatted for substitution into the document
func (rc RenderContext) Strings() map[string]string {
	out := make(map[string]string, len(rc))
	for key, value := range rc {
		out[key] = formatValue(value)
	}
	return out
}

// formatValue mirrors how the document template prints each value type.
// Floats keep one decimal when integral so 8 hours prints as "8.0".
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case nil:
		return ""
	}
	return ""
}

// Validate checks the two required fields: institution name and first student name.
// Only the empty string counts as missing; trimming is the input layer's job.
func Validate(v FormValues) error {
	var missing []string
	if v.Institution.Name == "" {
		missing = append(missing, FieldCompanyName)
	}
	if v.FirstStudentName() == "" {
		missing = append(missing, FieldFirstStudentName)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// DisplayName is the first student's name, suffixed with " 等" when the contract covers several students
func DisplayName(v FormValues) string {
	name := v.FirstStudentName()
	if v.StudentCount > 1 {
		return name + " 等"
	}
	return name
}

// Roster returns exactly MaxStudents slots; slots at or beyond StudentCount are empty
func Roster(v FormValues) [MaxStudents]Student {
	var roster [MaxStudents]Student
	for i := 0; i < MaxStudents && i < v.StudentCount && i < len(v.Students); i++ {
		roster[i] = v.Students[i]
	}
	return roster
}

// Build validates the form values and assembles the template context.
// On validation failure it returns a *ValidationError and no context.
func Build(v FormValues) (RenderContext, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}

	rc := RenderContext{
		KeyCompanyName:    v.Institution.Name,
		KeyCompanyTaxID:   v.Institution.TaxID,
		KeyCompanyRep:     v.Institution.Representative,
		KeyCompanyTitle:   v.Institution.RepresentativeTitle,
		KeyCompanyAddress: v.Institution.EffectiveAddress(),
		KeyStudentName:    DisplayName(v),

		KeyStartYear:  ROCYear(v.Term.Start),
		KeyStartMonth: int(v.Term.Start.Month()),
		KeyStartDay:   v.Term.Start.Day(),
		KeyEndYear:    ROCYear(v.Term.End),
		KeyEndMonth:   int(v.Term.End.Month()),
		KeyEndDay:     v.Term.End.Day(),

		KeyDailyStart: v.Term.DailyStart.String(),
		KeyDailyEnd:   v.Term.DailyEnd.String(),
		KeyDailyHours: v.Term.DailyHours,
	}

	for i, s := range Roster(v) {
		rc[studentKeys[i][0]] = s.Name
		rc[studentKeys[i][1]] = s.ClassID
	}

	rc.putCompensation(v.Compensation)
	rc.putBenefit(housingKeys, v.Housing)
	rc.putBenefit(mealKeys, v.Meals)
	rc.putBenefit(transportKeys, v.Transportation)

	return rc, nil
}

func (rc RenderContext) putCompensation(c Compensation) {
	rc[KeyPayNone] = GlyphUnchecked
	rc[KeyPayScholar] = GlyphUnchecked
	rc[KeyPayAllowance] = GlyphUnchecked
	rc[KeyPayLearnAmount] = ""
	rc[KeyPayWorkAmount] = ""

	switch pay := c.(type) {
	case LaborPay:
		rc[KeyTypeLearnCheck], rc[KeyTypeWorkCheck] = ContractLabor.glyphs()
		rc[KeyPayWorkAmount] = FormatAmount(pay.MonthlySalary)
	case LearningPay:
		rc.putLearningPay(pay)
	default:
		rc.putLearningPay(LearningPay{Kind: PaymentNone})
	}
}

func (rc RenderContext) putLearningPay(pay LearningPay) {
	rc[KeyTypeLearnCheck], rc[KeyTypeWorkCheck] = ContractLearning.glyphs()
	rc[KeyPayNone], rc[KeyPayScholar], rc[KeyPayAllowance] = pay.Kind.glyphs()

	// no payment prints an explicit zero rather than a blank
	if pay.Kind == PaymentNone {
		rc[KeyPayLearnAmount] = "0"
		return
	}
	rc[KeyPayLearnAmount] = FormatAmount(pay.Amount)
}

func (rc RenderContext) putBenefit(keys benefitKeys, b Benefit) {
	none, free, paid, stipend := b.Kind.glyphs()
	if keys.stipend == "" && b.Kind == ProvisionStipend {
		// three-option groups print a stipend as paid
		paid = GlyphChecked
	}

	rc[keys.none] = none
	rc[keys.free] = free
	rc[keys.paid] = paid
	if keys.stipend != "" {
		rc[keys.stipend] = stipend
	}

	rc[keys.cost] = ""
	if b.Kind.RequiresCost() {
		rc[keys.cost] = FormatAmount(b.Cost)
	}
}
