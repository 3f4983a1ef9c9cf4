//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "loan-origination-api"
	ConsumerName = "loan-portal"

	StateCustomerBaseline   = "customer 101 has no applications"
	StateApplicationExists  = "application 1 owned by customer 101 exists"
	StateApplicationMissing = "no application with id 404"
)

const (
	CustomerID            int64 = 101
	ExistingApplicationID int64 = 1
	MissingApplicationID  int64 = 404

	// CustomerToken is the placeholder bearer credential recorded in the pact.
	// The provider swaps it for a freshly signed token of CustomerID.
	CustomerToken = "pact-customer-token"

	// NumberPattern matches application numbers such as #CA-2026-00001.
	NumberPattern = `^#[A-Z]{2}-\d{4}-\d{5}$`
)

// ExampleApplicationPayload is the draft the portal opens in every interaction.
func ExampleApplicationPayload() map[string]any {
	return map[string]any{
		"purchase_price": "25000",
		"down_payment":   "5000",
		"loan_amount":    "20000",
		"term_months":    60,
		"apr":            "5.9",
	}
}

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the loan portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
