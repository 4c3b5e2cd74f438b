package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/thu-intern/contract-generator/internal/contract"
	"github.com/thu-intern/contract-generator/pkg/utils"
)

const (
	dateLayout          = "2006-01-02"
	defaultCompanyTitle = "負責人"
	defaultDailyStart   = "09:00"
	defaultDailyEnd     = "18:00"
	defaultDailyHours   = 8.0
)

// InputLimits are the bounds the form enforces before the builder runs
type InputLimits struct {
	MinimumMonthlyWage int64
	MinROCYear         int
	MaxROCYear         int
}

// ContractRequest is the contract form, posted as form fields or JSON
type ContractRequest struct {
	CompanyName    string `form:"company_name" json:"company_name"`
	CompanyTaxID   string `form:"company_tax_id" json:"company_tax_id"`
	CompanyRep     string `form:"company_rep" json:"company_rep"`
	CompanyTitle   string `form:"company_title" json:"company_title"`
	CompanyAddress string `form:"company_address" json:"company_address"`
	IsBranch       bool   `form:"is_branch" json:"is_branch"`
	BranchName     string `form:"branch_name" json:"branch_name"`
	BranchAddress  string `form:"branch_address" json:"branch_address"`

	StudentCount int    `form:"student_count" json:"student_count"`
	S1Name       string `form:"s1_name" json:"s1_name"`
	S1ID         string `form:"s1_id" json:"s1_id"`
	S2Name       string `form:"s2_name" json:"s2_name"`
	S2ID         string `form:"s2_id" json:"s2_id"`
	S3Name       string `form:"s3_name" json:"s3_name"`
	S3ID         string `form:"s3_id" json:"s3_id"`

	StartDate  string   `form:"start_date" json:"start_date"` // YYYY-MM-DD
	EndDate    string   `form:"end_date" json:"end_date"`
	DailyStart string   `form:"daily_start" json:"daily_start"` // HH:MM
	DailyEnd   string   `form:"daily_end" json:"daily_end"`
	DailyHours *float64 `form:"daily_hours" json:"daily_hours"`

	ContractType  string `form:"contract_type" json:"contract_type"` // learning, labor
	PaymentKind   string `form:"payment_kind" json:"payment_kind"`   // none, scholarship, allowance
	PaymentAmount int64  `form:"payment_amount" json:"payment_amount"`
	MonthlySalary int64  `form:"monthly_salary" json:"monthly_salary"`

	DormOption  string `form:"dorm_option" json:"dorm_option"` // none, free, paid
	DormCost    int64  `form:"dorm_cost" json:"dorm_cost"`
	FoodOption  string `form:"food_option" json:"food_option"`
	FoodCost    int64  `form:"food_cost" json:"food_cost"`
	TransOption string `form:"trans_option" json:"trans_option"` // none, free, paid, stipend
	TransCost   int64  `form:"trans_cost" json:"trans_cost"`
}

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InputError lists every field the form rejected
type InputError struct {
	Fields []FieldError
}

func (e *InputError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type fieldErrors []FieldError

func (fe *fieldErrors) add(field, format string, args ...any) {
	// messages may quote user input and are shown in the browser
	*fe = append(*fe, FieldError{Field: field, Message: utils.StripMarkup(fmt.Sprintf(format, args...))})
}

// ToFormValues sanitizes the request and applies the form bounds.
// Required-field checks are left to the contract builder.
func (r *ContractRequest) ToFormValues(limits InputLimits, now time.Time) (contract.FormValues, error) {
	var errs fieldErrors
	var v contract.FormValues

	v.Institution = contract.Institution{
		Name:                utils.SanitizeText(r.CompanyName),
		TaxID:               utils.NormalizeIdentifier(r.CompanyTaxID),
		Representative:      utils.SanitizeText(r.CompanyRep),
		RepresentativeTitle: utils.SanitizeText(r.CompanyTitle),
		RegisteredAddress:   utils.SanitizeText(r.CompanyAddress),
	}
	if v.Institution.RepresentativeTitle == "" {
		v.Institution.RepresentativeTitle = defaultCompanyTitle
	}
	if r.IsBranch {
		v.Institution.BranchName = utils.SanitizeText(r.BranchName)
		v.Institution.BranchAddress = utils.SanitizeText(r.BranchAddress)
	}

	v.StudentCount = r.StudentCount
	if v.StudentCount == 0 {
		v.StudentCount = 1
	}
	if v.StudentCount < 1 || v.StudentCount > contract.MaxStudents {
		errs.add("student_count", "must be between 1 and %d", contract.MaxStudents)
	} else {
		all := []contract.Student{
			{Name: utils.SanitizeText(r.S1Name), ClassID: utils.SanitizeText(r.S1ID)},
			{Name: utils.SanitizeText(r.S2Name), ClassID: utils.SanitizeText(r.S2ID)},
			{Name: utils.SanitizeText(r.S3Name), ClassID: utils.SanitizeText(r.S3ID)},
		}
		v.Students = all[:v.StudentCount]
	}

	v.Term = r.term(limits, now, &errs)
	v.Compensation = r.compensation(limits, &errs)
	v.Housing = benefit(contract.BenefitHousing, "dorm", r.DormOption, r.DormCost, &errs)
	v.Meals = benefit(contract.BenefitMeals, "food", r.FoodOption, r.FoodCost, &errs)
	v.Transportation = benefit(contract.BenefitTransportation, "trans", r.TransOption, r.TransCost, &errs)

	if len(errs) > 0 {
		return contract.FormValues{}, &InputError{Fields: errs}
	}
	return v, nil
}

// term defaults to 1 July this year until 30 June next year, 09:00-18:00, 8 hours
func (r *ContractRequest) term(limits InputLimits, now time.Time, errs *fieldErrors) contract.Term {
	var t contract.Term

	t.Start = parseDate("start_date", r.StartDate, time.Date(now.Year(), time.July, 1, 0, 0, 0, 0, time.Local), limits, errs)
	t.End = parseDate("end_date", r.EndDate, time.Date(now.Year()+1, time.June, 30, 0, 0, 0, 0, time.Local), limits, errs)

	t.DailyStart = parseClock("daily_start", r.DailyStart, defaultDailyStart, errs)
	t.DailyEnd = parseClock("daily_end", r.DailyEnd, defaultDailyEnd, errs)

	t.DailyHours = defaultDailyHours
	if r.DailyHours != nil {
		t.DailyHours = *r.DailyHours
	}
	if t.DailyHours < 0 {
		errs.add("daily_hours", "must not be negative")
	}

	return t
}

func (r *ContractRequest) compensation(limits InputLimits, errs *fieldErrors) contract.Compensation {
	contractType, err := contract.ParseContractType(strings.TrimSpace(r.ContractType))
	if err != nil {
		errs.add("contract_type", "must be learning or labor")
		return nil
	}

	if contractType == contract.ContractLabor {
		if r.MonthlySalary < limits.MinimumMonthlyWage {
			errs.add("monthly_salary", "must be at least %s", contract.FormatAmount(limits.MinimumMonthlyWage))
		}
		return contract.LaborPay{MonthlySalary: r.MonthlySalary}
	}

	kind, err := contract.ParsePaymentKind(strings.TrimSpace(r.PaymentKind))
	if err != nil {
		errs.add("payment_kind", "must be none, scholarship or allowance")
		return nil
	}
	if r.PaymentAmount < 0 {
		errs.add("payment_amount", "must not be negative")
	}
	return contract.LearningPay{Kind: kind, Amount: r.PaymentAmount}
}

func benefit(kind contract.BenefitKind, prefix, option string, cost int64, errs *fieldErrors) contract.Benefit {
	provision, err := contract.ParseProvision(kind, strings.TrimSpace(option))
	if err != nil {
		errs.add(prefix+"_option", "unsupported option %q", option)
		return contract.Benefit{}
	}
	if provision.RequiresCost() && cost < 0 {
		errs.add(prefix+"_cost", "must not be negative")
	}
	return contract.Benefit{Kind: provision, Cost: cost}
}

func parseDate(field, value string, fallback time.Time, limits InputLimits, errs *fieldErrors) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}

	d, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		errs.add(field, "must be a date in YYYY-MM-DD form")
		return time.Time{}
	}

	roc := contract.ROCYear(d)
	if roc < limits.MinROCYear || roc > limits.MaxROCYear {
		errs.add(field, "year must be between 民國 %d and %d", limits.MinROCYear, limits.MaxROCYear)
		return time.Time{}
	}
	return d
}

func parseClock(field, value, fallback string, errs *fieldErrors) contract.ClockTime {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	c, err := contract.ParseClock(value)
	if err != nil {
		errs.add(field, "must be a time in HH:MM form")
	}
	return c
}
