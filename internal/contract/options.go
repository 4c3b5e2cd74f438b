package contract

import "fmt"

// Checkbox glyphs used inside the generated document
const (
	GlyphChecked   = "☑"
	GlyphUnchecked = "□"
)

// ContractType is the internship contract type (實習類型)
type ContractType int

const (
	ContractLearning ContractType = iota // 一般型 (學習型)
	ContractLabor                        // 工作型 (勞資型)
)

// String returns the form value of the contract type
func (t ContractType) String() string {
	switch t {
	case ContractLearning:
		return "learning"
	case ContractLabor:
		return "labor"
	}
	return fmt.Sprintf("ContractType(%d)", int(t))
}

// Label returns the Chinese label shown on the form
func (t ContractType) Label() string {
	switch t {
	case ContractLearning:
		return "一般型 (學習型)"
	case ContractLabor:
		return "工作型 (勞資型)"
	}
	return ""
}

// ParseContractType parses "learning" or "labor"
func ParseContractType(s string) (ContractType, error) {
	switch s {
	case "learning", "":
		return ContractLearning, nil
	case "labor":
		return ContractLabor, nil
	}
	return 0, fmt.Errorf("%w: contract type %q", ErrUnknownOption, s)
}

// glyphs returns (learning, labor)
func (t ContractType) glyphs() (learn, work string) {
	switch t {
	case ContractLearning:
		return GlyphChecked, GlyphUnchecked
	case ContractLabor:
		return GlyphUnchecked, GlyphChecked
	}
	return GlyphUnchecked, GlyphUnchecked
}

// PaymentKind is the payment item of a learning-type internship (給付項目)
type PaymentKind int

const (
	PaymentNone        PaymentKind = iota // 無
	PaymentScholarship                    // 獎學金
	PaymentAllowance                      // 實習津貼
)

func (k PaymentKind) String() string {
	switch k {
	case PaymentNone:
		return "none"
	case PaymentScholarship:
		return "scholarship"
	case PaymentAllowance:
		return "allowance"
	}
	return fmt.Sprintf("PaymentKind(%d)", int(k))
}

// ParsePaymentKind parses "none", "scholarship" or "allowance"
func ParsePaymentKind(s string) (PaymentKind, error) {
	switch s {
	case "none", "":
		return PaymentNone, nil
	case "scholarship":
		return PaymentScholarship, nil
	case "allowance":
		return PaymentAllowance, nil
	}
	return 0, fmt.Errorf("%w: payment kind %q", ErrUnknownOption, s)
}

// glyphs returns (none, scholarship, allowance)
func (k PaymentKind) glyphs() (none, scholar, allowance string) {
	switch k {
	case PaymentNone:
		return GlyphChecked, GlyphUnchecked, GlyphUnchecked
	case PaymentScholarship:
		return GlyphUnchecked, GlyphChecked, GlyphUnchecked
	case PaymentAllowance:
		return GlyphUnchecked, GlyphUnchecked, GlyphChecked
	}
	return GlyphUnchecked, GlyphUnchecked, GlyphUnchecked
}

// Provision is how a benefit is provided (無 / 免費提供 / 付費提供 / 津貼)
type Provision int

const (
	ProvisionNone Provision = iota
	ProvisionFree
	ProvisionPaid
	ProvisionStipend // transportation only
)

func (p Provision) String() string {
	switch p {
	case ProvisionNone:
		return "none"
	case ProvisionFree:
		return "free"
	case ProvisionPaid:
		return "paid"
	case ProvisionStipend:
		return "stipend"
	}
	return fmt.Sprintf("Provision(%d)", int(p))
}

// RequiresCost reports whether the provision carries an amount
func (p Provision) RequiresCost() bool {
	return p == ProvisionPaid || p == ProvisionStipend
}

// BenefitKind identifies one of the three benefit groups
type BenefitKind int

const (
	BenefitHousing BenefitKind = iota
	BenefitMeals
	BenefitTransportation
)

func (b BenefitKind) String() string {
	switch b {
	case BenefitHousing:
		return "dorm"
	case BenefitMeals:
		return "food"
	case BenefitTransportation:
		return "trans"
	}
	return fmt.Sprintf("BenefitKind(%d)", int(b))
}

// AllowsStipend reports whether the group has a stipend option
func (b BenefitKind) AllowsStipend() bool {
	return b == BenefitTransportation
}

// ParseProvision parses a provision for the given benefit group.
// "stipend" is rejected for groups without a stipend option.
func ParseProvision(kind BenefitKind, s string) (Provision, error) {
	switch s {
	case "none", "":
		return ProvisionNone, nil
	case "free":
		return ProvisionFree, nil
	case "paid":
		return ProvisionPaid, nil
	case "stipend":
		if kind.AllowsStipend() {
			return ProvisionStipend, nil
		}
	}
	return 0, fmt.Errorf("%w: %s provision %q", ErrUnknownOption, kind, s)
}

// glyphs returns (none, free, paid, stipend).
// Groups without a stipend slot never see ProvisionStipend when values come from ParseProvision.
func (p Provision) glyphs() (none, free, paid, stipend string) {
	switch p {
	case ProvisionNone:
		return GlyphChecked, GlyphUnchecked, GlyphUnchecked, GlyphUnchecked
	case ProvisionFree:
		return GlyphUnchecked, GlyphChecked, GlyphUnchecked, GlyphUnchecked
	case ProvisionPaid:
		return GlyphUnchecked, GlyphUnchecked, GlyphChecked, GlyphUnchecked
	case ProvisionStipend:
		return GlyphUnchecked, GlyphUnchecked, GlyphUnchecked, GlyphChecked
	}
	return GlyphUnchecked, GlyphUnchecked, GlyphUnchecked, GlyphUnchecked
}
