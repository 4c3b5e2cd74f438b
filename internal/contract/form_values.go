package contract

import (
	"fmt"
	"time"
)

// MaxStudents is the number of student slots in the contract template
const MaxStudents = 3

// Institution is party B of the contract (實習機構)
type Institution struct {
	Name                string // 機構全銜 (legal name), required
	TaxID               string // 統一編號
	Representative      string // 代表人姓名
	RepresentativeTitle string // 代表人職稱
	RegisteredAddress   string // 公司登記地址
	BranchName          string // 實習單位/分公司名稱, optional
	BranchAddress       string // 實際實習地址, optional
}

// EffectiveAddress returns the address printed on the contract.
// The branch is appended only when both branch fields are filled in.
func (i Institution) EffectiveAddress() string {
	if i.BranchName != "" && i.BranchAddress != "" {
		return fmt.Sprintf("%s (實習地點：%s - %s)", i.RegisteredAddress, i.BranchName, i.BranchAddress)
	}
	return i.RegisteredAddress
}

// Student is party A of the contract (實習學生)
type Student struct {
	Name    string // 姓名
	ClassID string // 系級 / 學號
}

// ClockTime is a wall-clock time of day with minute precision
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses a 24-hour "HH:MM" string
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the time as zero-padded "HH:MM"
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Term is the internship period and daily schedule
type Term struct {
	Start      time.Time
	End        time.Time
	DailyStart ClockTime
	DailyEnd   ClockTime
	// DailyHours is entered by the operator and is not derived from DailyStart/DailyEnd
	DailyHours float64
}

// Compensation is either LearningPay or LaborPay
type Compensation interface {
	contractType() ContractType
}

// LearningPay is the optional payment of a learning-type internship
type LearningPay struct {
	Kind   PaymentKind
	Amount int64 // ignored when Kind is PaymentNone
}

func (LearningPay) contractType() ContractType { return ContractLearning }

// LaborPay is the monthly salary of a labor-type internship
type LaborPay struct {
	MonthlySalary int64
}

func (LaborPay) contractType() ContractType { return ContractLabor }

// Benefit is one of the housing, meals or transportation provisions
type Benefit struct {
	Kind Provision
	Cost int64 // only used when Kind.RequiresCost()
}

// FormValues is everything the operator entered for one contract
type FormValues struct {
	Institution    Institution
	Students       []Student
	StudentCount   int
	Term           Term
	Compensation   Compensation
	Housing        Benefit
	Meals          Benefit
	Transportation Benefit
}

// ContractType reports the type implied by the compensation variant.
// A missing compensation is treated as a learning contract without payment.
func (v FormValues) ContractType() ContractType {
	if v.Compensation == nil {
		return ContractLearning
	}
	return v.Compensation.contractType()
}

// FirstStudentName returns the name in the first student slot
func (v FormValues) FirstStudentName() string {
	if len(v.Students) == 0 {
		return ""
	}
	return v.Students[0].Name
}
