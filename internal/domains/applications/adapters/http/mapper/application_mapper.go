package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// PersonalInfo is the HTTP representation of the applicant section.
type PersonalInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
	SSNLastFour string `json:"ssn_last_four,omitempty"`
}

// Vehicle is the HTTP representation of the financed car.
type Vehicle struct {
	VIN         string `json:"vin"`
	Year        int    `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Trim        string `json:"trim,omitempty"`
	Mileage     int    `json:"mileage"`
	VehicleType string `json:"vehicle_type"`
}

// FinancialInfo is the HTTP representation of employment and credit details.
type FinancialInfo struct {
	EmployerName    string          `json:"employer_name,omitempty"`
	JobTitle        string          `json:"job_title,omitempty"`
	EmploymentType  string          `json:"employment_type"`
	YearsEmployed   int             `json:"years_employed"`
	AnnualIncome    decimal.Decimal `json:"annual_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	CreditBand      string          `json:"credit_band"`
}

// Address is the HTTP representation of one applicant address.
type Address struct {
	ID             int64  `json:"id,omitempty"`
	Street         string `json:"street"`
	Unit           string `json:"unit,omitempty"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZIP            string `json:"zip"`
	AddressType    string `json:"address_type"`
	YearsAtAddress int    `json:"years_at_address"`
}

// Document is the HTTP representation of uploaded document metadata.
type Document struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url"`
	UploadedBy  int64     `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateApplication is the inbound payload for opening a draft.
type CreateApplication struct {
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	DownPayment   decimal.Decimal  `json:"down_payment"`
	LoanAmount    decimal.Decimal  `json:"loan_amount"`
	TermMonths    int              `json:"term_months"`
	APR           *decimal.Decimal `json:"apr,omitempty"`
	Progress      string           `json:"progress,omitempty"`
	PersonalInfo  *PersonalInfo    `json:"personal_info,omitempty"`
	Vehicle       *Vehicle         `json:"vehicle,omitempty"`
	FinancialInfo *FinancialInfo   `json:"financial_info,omitempty"`
	Addresses     []Address        `json:"addresses,omitempty"`
}

// UpdateApplication captures a partial update while preserving field presence.
type UpdateApplication struct {
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	DownPayment   *decimal.Decimal `json:"down_payment,omitempty"`
	LoanAmount    *decimal.Decimal `json:"loan_amount,omitempty"`
	TermMonths    *int             `json:"term_months,omitempty"`
	APR           *decimal.Decimal `json:"apr,omitempty"`
	Progress      *string          `json:"progress,omitempty"`
	PersonalInfo  *PersonalInfo    `json:"personal_info,omitempty"`
	Vehicle       *Vehicle         `json:"vehicle,omitempty"`
	FinancialInfo *FinancialInfo   `json:"financial_info,omitempty"`
	Addresses     *[]Address       `json:"addresses,omitempty"`
}

// Application is the HTTP representation returned for a single application.
type Application struct {
	ID                int64            `json:"id"`
	ApplicationNumber string           `json:"application_number"`
	OwnerID           int64            `json:"owner_id"`
	Status            string           `json:"status"`
	Progress          string           `json:"progress"`
	PurchasePrice     decimal.Decimal  `json:"purchase_price"`
	DownPayment       decimal.Decimal  `json:"down_payment"`
	LoanAmount        decimal.Decimal  `json:"loan_amount"`
	TermMonths        int              `json:"term_months"`
	APR               *decimal.Decimal `json:"apr"`
	MonthlyPayment    *decimal.Decimal `json:"monthly_payment"`
	SubmittedDate     *string          `json:"submitted_date"`
	DecidedBy         *int64           `json:"decided_by,omitempty"`
	DecidedAt         *time.Time       `json:"decided_at,omitempty"`
	PersonalInfo      *PersonalInfo    `json:"personal_info,omitempty"`
	Vehicle           *Vehicle         `json:"vehicle,omitempty"`
	FinancialInfo     *FinancialInfo   `json:"financial_info,omitempty"`
	Addresses         []Address        `json:"addresses"`
	Documents         []Document       `json:"documents"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ApplicationPage is one page of a listing.
type ApplicationPage struct {
	Items      []Application `json:"items"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// ToCreateInput converts the inbound payload into the create command.
func ToCreateInput(model CreateApplication) (apptypes.CreateApplicationInput, error) {
	input := apptypes.CreateApplicationInput{
		Terms: domain.LoanTerms{
			PurchasePrice: model.PurchasePrice,
			DownPayment:   model.DownPayment,
			LoanAmount:    model.LoanAmount,
			TermMonths:    model.TermMonths,
			APR:           nullDecimal(model.APR),
		},
		Progress:  model.Progress,
		Vehicle:   toDomainVehicle(model.Vehicle),
		Financial: toDomainFinancial(model.FinancialInfo),
		Addresses: toDomainAddresses(model.Addresses),
	}
	personal, err := toDomainPersonal(model.PersonalInfo)
	if err != nil {
		return apptypes.CreateApplicationInput{}, err
	}
	input.Personal = personal
	return input, nil
}

// ToUpdateInput converts a partial update for the application id.
func ToUpdateInput(id int64, model UpdateApplication) (apptypes.UpdateApplicationInput, error) {
	input := apptypes.UpdateApplicationInput{
		ID:            id,
		PurchasePrice: model.PurchasePrice,
		DownPayment:   model.DownPayment,
		LoanAmount:    model.LoanAmount,
		TermMonths:    model.TermMonths,
		APR:           model.APR,
		Progress:      model.Progress,
		Vehicle:       toDomainVehicle(model.Vehicle),
		Financial:     toDomainFinancial(model.FinancialInfo),
	}
	if model.Addresses != nil {
		addresses := toDomainAddresses(*model.Addresses)
		if addresses == nil {
			addresses = []domain.Address{}
		}
		input.Addresses = &addresses
	}
	personal, err := toDomainPersonal(model.PersonalInfo)
	if err != nil {
		return apptypes.UpdateApplicationInput{}, err
	}
	input.Personal = personal
	return input, nil
}

// FromProjection maps a projection into the transport representation.
func FromProjection(projection *apptypes.ApplicationProjection) Application {
	app := projection.Entity
	out := Application{
		ID:                app.ID,
		ApplicationNumber: app.Number.String(),
		OwnerID:           app.OwnerID,
		Status:            string(app.Status),
		Progress:          string(app.Progress),
		PurchasePrice:     app.Terms.PurchasePrice,
		DownPayment:       app.Terms.DownPayment,
		LoanAmount:        app.Terms.LoanAmount,
		TermMonths:        app.Terms.TermMonths,
		APR:               decimalPointer(app.Terms.APR),
		MonthlyPayment:    decimalPointer(app.MonthlyPayment),
		DecidedBy:         app.DecidedBy,
		DecidedAt:         app.DecidedAt,
		PersonalInfo:      fromDomainPersonal(app.Personal),
		Vehicle:           fromDomainVehicle(app.Vehicle),
		FinancialInfo:     fromDomainFinancial(app.Financial),
		Addresses:         make([]Address, 0, len(app.Addresses)),
		Documents:         make([]Document, 0, len(app.Documents)),
		CreatedAt:         projection.Metadata.CreatedAt,
		UpdatedAt:         projection.Metadata.UpdatedAt,
	}
	if app.SubmittedDate != nil {
		date := app.SubmittedDate.Format(DateLayout)
		out.SubmittedDate = &date
	}
	for _, a := range app.Addresses {
		out.Addresses = append(out.Addresses, Address{
			ID:             a.ID,
			Street:         a.Street,
			Unit:           a.Unit,
			City:           a.City,
			State:          a.State,
			ZIP:            a.ZIP,
			AddressType:    string(a.Type),
			YearsAtAddress: a.YearsAtAddress,
		})
	}
	for _, d := range app.Documents {
		out.Documents = append(out.Documents, Document{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			ContentType: d.ContentType,
			SizeBytes:   d.SizeBytes,
			URL:         d.URL,
			UploadedBy:  d.UploadedBy,
			UploadedAt:  d.UploadedAt,
		})
	}
	return out
}

// FromPage maps a listing page.
func FromPage(page *apptypes.ApplicationPage) ApplicationPage {
	out := ApplicationPage{
		Items:      make([]Application, 0, len(page.Items)),
		Page:       page.Page,
		PerPage:    page.PerPage,
		Total:      page.Total,
		TotalPages: page.TotalPages(),
	}
	for _, item := range page.Items {
		out.Items = append(out.Items, FromProjection(item))
	}
	return out
}

func toDomainPersonal(p *PersonalInfo) (*domain.PersonalInfo, error) {
	if p == nil {
		return nil, nil
	}
	out := &domain.PersonalInfo{
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		Email:       strings.TrimSpace(p.Email),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
		SSNLastFour: p.SSNLastFour,
	}
	if raw := strings.TrimSpace(p.DateOfBirth); raw != "" {
		dob, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, domain.ValidationErrors{{
				Field:   "personal_info.date_of_birth",
				Message: "must be a date formatted as YYYY-MM-DD",
				Err:     domain.ErrInvalidFormat,
			}}
		}
		out.DateOfBirth = dob
	}
	return out, nil
}

func fromDomainPersonal(p *domain.PersonalInfo) *PersonalInfo {
	if p == nil {
		return nil
	}
	out := &PersonalInfo{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		SSNLastFour: p.SSNLastFour,
	}
	if !p.DateOfBirth.IsZero() {
		out.DateOfBirth = p.DateOfBirth.Format(DateLayout)
	}
	return out
}

func toDomainVehicle(v *Vehicle) *domain.Vehicle {
	if v == nil {
		return nil
	}
	return &domain.Vehicle{
		VIN:     strings.ToUpper(strings.TrimSpace(v.VIN)),
		Year:    v.Year,
		Make:    v.Make,
		Model:   v.Model,
		Trim:    v.Trim,
		Mileage: v.Mileage,
		Type:    domain.VehicleType(v.VehicleType),
	}
}

func fromDomainVehicle(v *domain.Vehicle) *Vehicle {
	if v == nil {
		return nil
	}
	return &Vehicle{
		VIN:         v.VIN,
		Year:        v.Year,
		Make:        v.Make,
		Model:       v.Model,
		Trim:        v.Trim,
		Mileage:     v.Mileage,
		VehicleType: string(v.Type),
	}
}

func toDomainFinancial(f *FinancialInfo) *domain.FinancialInfo {
	if f == nil {
		return nil
	}
	return &domain.FinancialInfo{
		EmployerName:    f.EmployerName,
		JobTitle:        f.JobTitle,
		EmploymentType:  domain.EmploymentType(f.EmploymentType),
		YearsEmployed:   f.YearsEmployed,
		AnnualIncome:    f.AnnualIncome,
		MonthlyExpenses: f.MonthlyExpenses,
		CreditBand:      domain.CreditBand(f.CreditBand),
	}
}

func fromDomainFinancial(f *domain.FinancialInfo) *FinancialInfo {
	if f == nil {
		return nil
	}
	return &FinancialInfo{
		EmployerName:    f.EmployerName,
		JobTitle:        f.JobTitle,
		EmploymentType:  string(f.EmploymentType),
		YearsEmployed:   f.YearsEmployed,
		AnnualIncome:    f.AnnualIncome,
		MonthlyExpenses: f.MonthlyExpenses,
		CreditBand:      string(f.CreditBand),
	}
}

func toDomainAddresses(list []Address) []domain.Address {
	if len(list) == 0 {
		return nil
	}
	out := make([]domain.Address, 0, len(list))
	for _, a := range list {
		out = append(out, domain.Address{
			Street:         a.Street,
			Unit:           a.Unit,
			City:           a.City,
			State:          a.State,
			ZIP:            a.ZIP,
			Type:           domain.AddressType(a.AddressType),
			YearsAtAddress: a.YearsAtAddress,
		})
	}
	return out
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*value)
}

func decimalPointer(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	d := value.Decimal
	return &d
}
