package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	vinPattern   = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	zipPattern   = regexp.MustCompile(`^[0-9]{5}([0-9]{4})?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("vin", func(fl validator.FieldLevel) bool {
		return vinPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("state_code", func(fl validator.FieldLevel) bool {
		return jurisdictionPattern.MatchString(fl.Field().String())
	})
	return v
}

// VehicleType is the closed set of vehicle conditions.
type VehicleType string

const (
	VehicleNew               VehicleType = "new"
	VehicleUsed              VehicleType = "used"
	VehicleCertifiedPreOwned VehicleType = "certified_pre_owned"
)

// ParseVehicleType converts raw input into a VehicleType.
func ParseVehicleType(raw string) (VehicleType, error) {
	switch v := VehicleType(strings.ToLower(strings.TrimSpace(raw))); v {
	case VehicleNew, VehicleUsed, VehicleCertifiedPreOwned:
		return v, nil
	default:
		return "", fmt.Errorf("%w: vehicle type %q", ErrInvalidEnumValue, raw)
	}
}

// CreditBand is the applicant's self-reported credit standing.
type CreditBand string

const (
	CreditExcellent CreditBand = "excellent"
	CreditGood      CreditBand = "good"
	CreditFair      CreditBand = "fair"
	CreditPoor      CreditBand = "poor"
	CreditUnknown   CreditBand = "unknown"
)

// ParseCreditBand converts raw input into a CreditBand.
func ParseCreditBand(raw string) (CreditBand, error) {
	switch c := CreditBand(strings.ToLower(strings.TrimSpace(raw))); c {
	case CreditExcellent, CreditGood, CreditFair, CreditPoor, CreditUnknown:
		return c, nil
	default:
		return "", fmt.Errorf("%w: credit band %q", ErrInvalidEnumValue, raw)
	}
}

// EmploymentType describes how the applicant earns income.
type EmploymentType string

const (
	EmploymentFullTime     EmploymentType = "full_time"
	EmploymentPartTime     EmploymentType = "part_time"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentUnemployed   EmploymentType = "unemployed"
	EmploymentRetired      EmploymentType = "retired"
)

// ParseEmploymentType converts raw input into an EmploymentType.
func ParseEmploymentType(raw string) (EmploymentType, error) {
	switch e := EmploymentType(strings.ToLower(strings.TrimSpace(raw))); e {
	case EmploymentFullTime, EmploymentPartTime, EmploymentSelfEmployed, EmploymentUnemployed, EmploymentRetired:
		return e, nil
	default:
		return "", fmt.Errorf("%w: employment type %q", ErrInvalidEnumValue, raw)
	}
}

// AddressType distinguishes current, previous and mailing addresses.
type AddressType string

const (
	AddressCurrent  AddressType = "current"
	AddressPrevious AddressType = "previous"
	AddressMailing  AddressType = "mailing"
)

// ParseAddressType converts raw input into an AddressType.
func ParseAddressType(raw string) (AddressType, error) {
	switch a := AddressType(strings.ToLower(strings.TrimSpace(raw))); a {
	case AddressCurrent, AddressPrevious, AddressMailing:
		return a, nil
	default:
		return "", fmt.Errorf("%w: address type %q", ErrInvalidEnumValue, raw)
	}
}

// PersonalInfo identifies the applicant.
type PersonalInfo struct {
	FirstName   string    `json:"first_name" validate:"required,max=100"`
	LastName    string    `json:"last_name" validate:"required,max=100"`
	Email       string    `json:"email" validate:"required,email"`
	PhoneNumber string    `json:"phone_number" validate:"required,phone"`
	DateOfBirth time.Time `json:"date_of_birth"`
	SSNLastFour string    `json:"ssn_last_four" validate:"omitempty,len=4,numeric"`
}

// Validate checks formats and that the applicant is an adult at now.
func (p PersonalInfo) Validate(now time.Time) error {
	errs := structErrors("personal_info", p)
	switch {
	case p.DateOfBirth.IsZero():
		errs = append(errs, FieldError{Field: "personal_info.date_of_birth", Message: "is required", Err: ErrInvalidFormat})
	case p.DateOfBirth.AddDate(18, 0, 0).After(now):
		errs = append(errs, fieldError("personal_info.date_of_birth", ErrApplicantUnderage))
	}
	return errs.orNil()
}

// Vehicle describes the financed car.
type Vehicle struct {
	VIN     string      `json:"vin" validate:"required,vin"`
	Year    int         `json:"year"`
	Make    string      `json:"make" validate:"required,max=50"`
	Model   string      `json:"model" validate:"required,max=50"`
	Trim    string      `json:"trim" validate:"omitempty,max=50"`
	Mileage int         `json:"mileage" validate:"gte=0"`
	Type    VehicleType `json:"vehicle_type"`
}

// Validate checks formats and that the model year is between 1990 and next year.
func (v Vehicle) Validate(now time.Time) error {
	errs := structErrors("vehicle", v)
	if v.Year < 1990 || v.Year > now.Year()+1 {
		errs = append(errs, fieldError("vehicle.year", ErrInvalidVehicleYear))
	}
	if _, err := ParseVehicleType(string(v.Type)); err != nil {
		errs = append(errs, fieldError("vehicle.vehicle_type", err))
	}
	return errs.orNil()
}

// FinancialInfo captures employment and self-reported credit.
type FinancialInfo struct {
	EmployerName    string          `json:"employer_name" validate:"omitempty,max=120"`
	JobTitle        string          `json:"job_title" validate:"omitempty,max=120"`
	EmploymentType  EmploymentType  `json:"employment_type"`
	YearsEmployed   int             `json:"years_employed" validate:"gte=0,lte=60"`
	AnnualIncome    decimal.Decimal `json:"annual_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	CreditBand      CreditBand      `json:"credit_band"`
}

// Validate checks ranges and enum values.
func (f FinancialInfo) Validate() error {
	errs := structErrors("financial_info", f)
	if _, err := ParseEmploymentType(string(f.EmploymentType)); err != nil {
		errs = append(errs, fieldError("financial_info.employment_type", err))
	}
	if _, err := ParseCreditBand(string(f.CreditBand)); err != nil {
		errs = append(errs, fieldError("financial_info.credit_band", err))
	}
	if !f.AnnualIncome.IsPositive() {
		errs = append(errs, fieldError("financial_info.annual_income", ErrIncomeInvalid))
	}
	if f.MonthlyExpenses.IsNegative() {
		errs = append(errs, fieldError("financial_info.monthly_expenses", ErrExpensesNegative))
	}
	if exceedsMaxAmount(f.AnnualIncome) {
		errs = append(errs, fieldError("financial_info.annual_income", ErrAmountTooLarge))
	}
	if exceedsMaxAmount(f.MonthlyExpenses) {
		errs = append(errs, fieldError("financial_info.monthly_expenses", ErrAmountTooLarge))
	}
	return errs.orNil()
}

// Address is one of the applicant's addresses.
type Address struct {
	ID             int64       `json:"-"`
	Street         string      `json:"street" validate:"required,max=200"`
	Unit           string      `json:"unit" validate:"omitempty,max=50"`
	City           string      `json:"city" validate:"required,max=100"`
	State          string      `json:"state" validate:"required,state_code"`
	ZIP            string      `json:"zip" validate:"required,zip"`
	Type           AddressType `json:"address_type"`
	YearsAtAddress int         `json:"years_at_address" validate:"gte=0,lte=100"`
}

// Validate checks formats and the address type.
func (a Address) Validate(field string) error {
	errs := structErrors(field, a)
	if _, err := ParseAddressType(string(a.Type)); err != nil {
		errs = append(errs, fieldError(field+".address_type", err))
	}
	return errs.orNil()
}

// Document records metadata for a file kept in the blob store.
type Document struct {
	ID          int64
	Name        string
	Description string
	ContentType string
	SizeBytes   int64
	URL         string
	UploadedBy  int64
	UploadedAt  time.Time
}

// Validate checks that the document carries a name and a retrievable URL.
func (d Document) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, FieldError{Field: "document.name", Message: "is required", Err: ErrInvalidDocument})
	}
	if strings.TrimSpace(d.URL) == "" {
		errs = append(errs, FieldError{Field: "document.url", Message: "is required", Err: ErrInvalidDocument})
	}
	return errs.orNil()
}

func structErrors(prefix string, v any) ValidationErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: prefix, Message: err.Error(), Err: ErrInvalidFormat}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   prefix + "." + fe.Field(),
			Message: tagMessage(fe),
			Err:     ErrInvalidFormat,
		})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must contain 10 to 15 digits"
	case "vin":
		return "must be 17 characters without I, O or Q"
	case "zip":
		return "must be 5 or 9 digits"
	case "state_code":
		return "must be a two-letter state code"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "numeric":
		return "must be numeric"
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}
