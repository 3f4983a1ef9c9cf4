package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

// Models lists the tables owned by this adapter, parents first.
func Models() []any {
	return []any{
		&applicationRecord{},
		&personalInfoRecord{},
		&vehicleRecord{},
		&financialInfoRecord{},
		&addressRecord{},
		&documentRecord{},
		&reviewRecord{},
	}
}

type applicationRecord struct {
	ID             int64               `gorm:"primaryKey;column:id"`
	Number         string              `gorm:"column:application_number;size:16;uniqueIndex"`
	OwnerID        int64               `gorm:"column:owner_id;index"`
	Status         string              `gorm:"column:status;type:varchar(32);index"`
	Progress       string              `gorm:"column:application_progress;type:varchar(16)"`
	PurchasePrice  decimal.Decimal     `gorm:"column:purchase_price;type:numeric(12,2)"`
	DownPayment    decimal.Decimal     `gorm:"column:down_payment;type:numeric(12,2)"`
	LoanAmount     decimal.Decimal     `gorm:"column:loan_amount;type:numeric(12,2)"`
	TermMonths     int                 `gorm:"column:term_months"`
	APR            decimal.NullDecimal `gorm:"column:apr;type:numeric(6,3)"`
	MonthlyPayment decimal.NullDecimal `gorm:"column:monthly_payment;type:numeric(12,2)"`
	SubmittedDate  *time.Time          `gorm:"column:submitted_date;type:date"`
	DecidedBy      *int64              `gorm:"column:decided_by"`
	DecidedAt      *time.Time          `gorm:"column:decided_at"`
	CreatedAt      time.Time           `gorm:"column:created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at"`

	Personal  *personalInfoRecord  `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Vehicle   *vehicleRecord       `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Financial *financialInfoRecord `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Addresses []addressRecord      `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Documents []documentRecord     `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

func (applicationRecord) TableName() string { return "applications" }

type personalInfoRecord struct {
	ID            int64     `gorm:"primaryKey;column:id"`
	ApplicationID int64     `gorm:"column:application_id;uniqueIndex"`
	FirstName     string    `gorm:"column:first_name;size:100"`
	LastName      string    `gorm:"column:last_name;size:100"`
	Email         string    `gorm:"column:email;size:255"`
	PhoneNumber   string    `gorm:"column:phone_number;size:20"`
	DateOfBirth   time.Time `gorm:"column:date_of_birth;type:date"`
	SSNLastFour   string    `gorm:"column:ssn_last_four;size:4"`
}

func (personalInfoRecord) TableName() string { return "personal_infos" }

type vehicleRecord struct {
	ID            int64  `gorm:"primaryKey;column:id"`
	ApplicationID int64  `gorm:"column:application_id;uniqueIndex"`
	VIN           string `gorm:"column:vin;size:17;uniqueIndex"`
	Year          int    `gorm:"column:year"`
	Make          string `gorm:"column:make;size:50"`
	Model         string `gorm:"column:model;size:50"`
	Trim          string `gorm:"column:trim;size:50"`
	Mileage       int    `gorm:"column:mileage"`
	VehicleType   string `gorm:"column:vehicle_type;type:varchar(32)"`
}

func (vehicleRecord) TableName() string { return "vehicles" }

type financialInfoRecord struct {
	ID              int64           `gorm:"primaryKey;column:id"`
	ApplicationID   int64           `gorm:"column:application_id;uniqueIndex"`
	EmployerName    string          `gorm:"column:employer_name;size:120"`
	JobTitle        string          `gorm:"column:job_title;size:120"`
	EmploymentType  string          `gorm:"column:employment_type;type:varchar(32)"`
	YearsEmployed   int             `gorm:"column:years_employed"`
	AnnualIncome    decimal.Decimal `gorm:"column:annual_income;type:numeric(12,2)"`
	MonthlyExpenses decimal.Decimal `gorm:"column:monthly_expenses;type:numeric(12,2)"`
	CreditBand      string          `gorm:"column:credit_band;type:varchar(16)"`
}

func (financialInfoRecord) TableName() string { return "financial_infos" }

type addressRecord struct {
	ID             int64  `gorm:"primaryKey;column:id"`
	ApplicationID  int64  `gorm:"column:application_id;index"`
	Street         string `gorm:"column:street;size:200"`
	Unit           string `gorm:"column:unit;size:50"`
	City           string `gorm:"column:city;size:100"`
	State          string `gorm:"column:state;size:2"`
	ZIP            string `gorm:"column:zip_code;size:10"`
	AddressType    string `gorm:"column:address_type;type:varchar(16)"`
	YearsAtAddress int    `gorm:"column:years_at_address"`
}

func (addressRecord) TableName() string { return "addresses" }

type documentRecord struct {
	ID            int64     `gorm:"primaryKey;column:id"`
	ApplicationID int64     `gorm:"column:application_id;index"`
	Name          string    `gorm:"column:name;size:255"`
	Description   string    `gorm:"column:description"`
	ContentType   string    `gorm:"column:content_type;size:127"`
	SizeBytes     int64     `gorm:"column:size_bytes"`
	URL           string    `gorm:"column:url"`
	UploadedBy    int64     `gorm:"column:uploaded_by"`
	UploadedAt    time.Time `gorm:"column:uploaded_at"`
}

func (documentRecord) TableName() string { return "documents" }

type reviewRecord struct {
	ID                    int64      `gorm:"primaryKey;column:id"`
	ApplicationID         int64      `gorm:"column:application_id;uniqueIndex"`
	PersonalInfoComplete  bool       `gorm:"column:personal_info_complete"`
	VehicleInfoComplete   bool       `gorm:"column:vehicle_info_complete"`
	FinancialInfoComplete bool       `gorm:"column:financial_info_complete"`
	DocumentsComplete     bool       `gorm:"column:documents_complete"`
	CreditCheckAuthorized bool       `gorm:"column:credit_check_authorized"`
	ReviewedBy            *int64     `gorm:"column:reviewed_by"`
	ReviewCompletedAt     *time.Time `gorm:"column:review_completed_at"`
	Notes                 string     `gorm:"column:notes"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (reviewRecord) TableName() string { return "application_reviews" }

func newApplicationRecord(app *domain.Application) applicationRecord {
	return applicationRecord{
		ID:             app.ID,
		Number:         app.Number.String(),
		OwnerID:        app.OwnerID,
		Status:         string(app.Status),
		Progress:       string(app.Progress),
		PurchasePrice:  app.Terms.PurchasePrice,
		DownPayment:    app.Terms.DownPayment,
		LoanAmount:     app.Terms.LoanAmount,
		TermMonths:     app.Terms.TermMonths,
		APR:            app.Terms.APR,
		MonthlyPayment: app.MonthlyPayment,
		SubmittedDate:  app.SubmittedDate,
		DecidedBy:      app.DecidedBy,
		DecidedAt:      app.DecidedAt,
	}
}

func childRecords(app *domain.Application) (*personalInfoRecord, *vehicleRecord, *financialInfoRecord, []addressRecord, []documentRecord) {
	var (
		personal  *personalInfoRecord
		vehicle   *vehicleRecord
		financial *financialInfoRecord
	)
	if p := app.Personal; p != nil {
		personal = &personalInfoRecord{
			ApplicationID: app.ID,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			Email:         p.Email,
			PhoneNumber:   p.PhoneNumber,
			DateOfBirth:   p.DateOfBirth,
			SSNLastFour:   p.SSNLastFour,
		}
	}
	if v := app.Vehicle; v != nil {
		vehicle = &vehicleRecord{
			ApplicationID: app.ID,
			VIN:           v.VIN,
			Year:          v.Year,
			Make:          v.Make,
			Model:         v.Model,
			Trim:          v.Trim,
			Mileage:       v.Mileage,
			VehicleType:   string(v.Type),
		}
	}
	if f := app.Financial; f != nil {
		financial = &financialInfoRecord{
			ApplicationID:   app.ID,
			EmployerName:    f.EmployerName,
			JobTitle:        f.JobTitle,
			EmploymentType:  string(f.EmploymentType),
			YearsEmployed:   f.YearsEmployed,
			AnnualIncome:    f.AnnualIncome,
			MonthlyExpenses: f.MonthlyExpenses,
			CreditBand:      string(f.CreditBand),
		}
	}
	addresses := make([]addressRecord, 0, len(app.Addresses))
	for _, a := range app.Addresses {
		addresses = append(addresses, addressRecord{
			ID:             a.ID,
			ApplicationID:  app.ID,
			Street:         a.Street,
			Unit:           a.Unit,
			City:           a.City,
			State:          a.State,
			ZIP:            a.ZIP,
			AddressType:    string(a.Type),
			YearsAtAddress: a.YearsAtAddress,
		})
	}
	documents := make([]documentRecord, 0, len(app.Documents))
	for _, d := range app.Documents {
		documents = append(documents, documentRecord{
			ID:            d.ID,
			ApplicationID: app.ID,
			Name:          d.Name,
			Description:   d.Description,
			ContentType:   d.ContentType,
			SizeBytes:     d.SizeBytes,
			URL:           d.URL,
			UploadedBy:    d.UploadedBy,
			UploadedAt:    d.UploadedAt,
		})
	}
	return personal, vehicle, financial, addresses, documents
}

func (r *applicationRecord) toDomain() *domain.Application {
	app := &domain.Application{
		ID:       r.ID,
		Number:   domain.ApplicationNumber(r.Number),
		OwnerID:  r.OwnerID,
		Status:   domain.Status(r.Status),
		Progress: domain.Progress(r.Progress),
		Terms: domain.LoanTerms{
			PurchasePrice: r.PurchasePrice,
			DownPayment:   r.DownPayment,
			LoanAmount:    r.LoanAmount,
			TermMonths:    r.TermMonths,
			APR:           r.APR,
		},
		MonthlyPayment: r.MonthlyPayment,
		SubmittedDate:  r.SubmittedDate,
		DecidedBy:      r.DecidedBy,
		DecidedAt:      r.DecidedAt,
	}
	if p := r.Personal; p != nil {
		app.Personal = &domain.PersonalInfo{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Email:       p.Email,
			PhoneNumber: p.PhoneNumber,
			DateOfBirth: p.DateOfBirth,
			SSNLastFour: p.SSNLastFour,
		}
	}
	if v := r.Vehicle; v != nil {
		app.Vehicle = &domain.Vehicle{
			VIN:     v.VIN,
			Year:    v.Year,
			Make:    v.Make,
			Model:   v.Model,
			Trim:    v.Trim,
			Mileage: v.Mileage,
			Type:    domain.VehicleType(v.VehicleType),
		}
	}
	if f := r.Financial; f != nil {
		app.Financial = &domain.FinancialInfo{
			EmployerName:    f.EmployerName,
			JobTitle:        f.JobTitle,
			EmploymentType:  domain.EmploymentType(f.EmploymentType),
			YearsEmployed:   f.YearsEmployed,
			AnnualIncome:    f.AnnualIncome,
			MonthlyExpenses: f.MonthlyExpenses,
			CreditBand:      domain.CreditBand(f.CreditBand),
		}
	}
	for _, a := range r.Addresses {
		app.Addresses = append(app.Addresses, domain.Address{
			ID:             a.ID,
			Street:         a.Street,
			Unit:           a.Unit,
			City:           a.City,
			State:          a.State,
			ZIP:            a.ZIP,
			Type:           domain.AddressType(a.AddressType),
			YearsAtAddress: a.YearsAtAddress,
		})
	}
	for _, d := range r.Documents {
		app.Documents = append(app.Documents, domain.Document{
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
	return app
}

func (r *applicationRecord) toProjection() *apptypes.ApplicationProjection {
	return apptypes.NewApplicationProjection(r.toDomain(), r.CreatedAt, r.UpdatedAt)
}

func newReviewRecord(review *domain.Review) reviewRecord {
	return reviewRecord{
		ID:                    review.ID,
		ApplicationID:         review.ApplicationID,
		PersonalInfoComplete:  review.PersonalInfoComplete,
		VehicleInfoComplete:   review.VehicleInfoComplete,
		FinancialInfoComplete: review.FinancialInfoComplete,
		DocumentsComplete:     review.DocumentsComplete,
		CreditCheckAuthorized: review.CreditCheckAuthorized,
		ReviewedBy:            review.ReviewedBy,
		ReviewCompletedAt:     review.ReviewCompletedAt,
		Notes:                 review.Notes,
	}
}

func (r *reviewRecord) toProjection() *apptypes.ReviewProjection {
	review := &domain.Review{
		ID:                    r.ID,
		ApplicationID:         r.ApplicationID,
		PersonalInfoComplete:  r.PersonalInfoComplete,
		VehicleInfoComplete:   r.VehicleInfoComplete,
		FinancialInfoComplete: r.FinancialInfoComplete,
		DocumentsComplete:     r.DocumentsComplete,
		CreditCheckAuthorized: r.CreditCheckAuthorized,
		ReviewedBy:            r.ReviewedBy,
		ReviewCompletedAt:     r.ReviewCompletedAt,
		Notes:                 r.Notes,
	}
	return apptypes.NewReviewProjection(review, r.CreatedAt, r.UpdatedAt)
}
