package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func standardTerms() LoanTerms {
	return LoanTerms{
		PurchasePrice: dec("25000"),
		DownPayment:   dec("5000"),
		LoanAmount:    dec("20000"),
		TermMonths:    60,
		APR:           decimal.NewNullDecimal(dec("5.9")),
	}
}

func samplePersonal() PersonalInfo {
	return PersonalInfo{
		FirstName:   "Dana",
		LastName:    "Reyes",
		Email:       "dana.reyes@example.com",
		PhoneNumber: "+15555550123",
		DateOfBirth: time.Date(1988, time.July, 2, 0, 0, 0, 0, time.UTC),
		SSNLastFour: "1234",
	}
}

func sampleVehicle() Vehicle {
	return Vehicle{
		VIN:     "1HGCM82633A004352",
		Year:    2024,
		Make:    "Honda",
		Model:   "Accord",
		Mileage: 1200,
		Type:    VehicleUsed,
	}
}

func sampleFinancial() FinancialInfo {
	return FinancialInfo{
		EmployerName:    "Acme Freight",
		JobTitle:        "Dispatcher",
		EmploymentType:  EmploymentFullTime,
		YearsEmployed:   4,
		AnnualIncome:    dec("72000"),
		MonthlyExpenses: dec("2100"),
		CreditBand:      CreditGood,
	}
}

func sampleAddress(state string) Address {
	return Address{
		Street:         "12 Harbor Way",
		City:           "Mobile",
		State:          state,
		ZIP:            "36602",
		Type:           AddressCurrent,
		YearsAtAddress: 3,
	}
}

func completeDraft() *Application {
	app, err := NewApplication(7, standardTerms())
	if err != nil {
		panic(err)
	}
	app.ID = 11
	if err := app.SetPersonalInfo(samplePersonal(), testNow); err != nil {
		panic(err)
	}
	if err := app.SetVehicle(sampleVehicle(), testNow); err != nil {
		panic(err)
	}
	if err := app.SetFinancialInfo(sampleFinancial()); err != nil {
		panic(err)
	}
	if err := app.ReplaceAddresses([]Address{sampleAddress("AL")}); err != nil {
		panic(err)
	}
	return app
}

func completeReview(applicationID int64) *Review {
	r := NewReview(applicationID)
	for _, d := range Dimensions {
		_, _ = r.SetFlag(d, true, 99, testNow)
	}
	return r
}
