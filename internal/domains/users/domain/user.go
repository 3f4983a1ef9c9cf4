package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var (
	ErrInvalidEmail  = errors.New("email address is not valid")
	ErrInvalidPhone  = errors.New("phone number must contain 10 to 15 digits")
	ErrNameRequired  = errors.New("name is required")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
	ErrLongPassword  = errors.New("password must be at most 72 bytes")
	ErrPasswordEmpty = errors.New("password is required")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	validate     = validator.New()
)

// FieldError ties a rule violation to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e FieldError) Unwrap() error { return e.Err }

// User is an account able to act on applications.
type User struct {
	ID           int64
	Email        string
	PhoneNumber  string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         authz.Role
}

// NewCustomer validates a sign-up and hashes its password. Sign-ups are always customers.
func NewCustomer(email, phone, firstName, lastName, password string, cost int) (*User, error) {
	u := &User{
		Email:       NormalizeEmail(email),
		PhoneNumber: strings.TrimSpace(phone),
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		Role:        authz.RoleCustomer,
	}
	errs := u.validateProfile()
	if err := u.SetPassword(password, cost); err != nil {
		errs = append(errs, FieldError{Field: "password", Err: err})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return u, nil
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword replaces the stored bcrypt hash.
func (u *User) SetPassword(password string, cost int) error {
	switch {
	case password == "":
		return ErrPasswordEmpty
	case len(password) < MinPasswordLength:
		return ErrWeakPassword
	case len(password) > 72:
		return ErrLongPassword
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u == nil || u.PasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// AssignRole changes the user's role.
func (u *User) AssignRole(role authz.Role) {
	u.Role = role
}

// Actor returns the identity the user acts as.
func (u *User) Actor() authz.Actor {
	return authz.Actor{ID: u.ID, Role: u.Role}
}

// FullName joins the first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) validateProfile() []error {
	var errs []error
	if validate.Var(u.Email, "required,email,max=254") != nil {
		errs = append(errs, FieldError{Field: "email", Err: ErrInvalidEmail})
	}
	if !phonePattern.MatchString(u.PhoneNumber) {
		errs = append(errs, FieldError{Field: "phone_number", Err: ErrInvalidPhone})
	}
	if u.FirstName == "" {
		errs = append(errs, FieldError{Field: "first_name", Err: ErrNameRequired})
	}
	if u.LastName == "" {
		errs = append(errs, FieldError{Field: "last_name", Err: ErrNameRequired})
	}
	return errs
}

// FieldErrors flattens err into a field → message map.
func FieldErrors(err error) map[string]string {
	fields := map[string]string{}
	collectFields(err, fields)
	return fields
}

func collectFields(err error, fields map[string]string) {
	if err == nil {
		return
	}
	if fe, ok := err.(FieldError); ok {
		if _, seen := fields[fe.Field]; !seen {
			fields[fe.Field] = fe.Err.Error()
		}
		return
	}
	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range wrapped.Unwrap() {
			collectFields(inner, fields)
		}
	case interface{ Unwrap() error }:
		collectFields(wrapped.Unwrap(), fields)
	}
}
