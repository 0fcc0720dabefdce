package ads

import (
	"regexp"
	"strings"
	"unicode"
)

// CreateAccountRequest is the input for creating a client account under the MCC.
type CreateAccountRequest struct {
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	Timezone       string `json:"timezone"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	FinalURLSuffix string `json:"final_url_suffix,omitempty"`
}

// CreationResult is the uniform envelope for account creation.
// Exactly one of (ResourceName, CustomerID) or Errors is populated.
type CreationResult struct {
	Success      bool     `json:"success"`
	ResourceName string   `json:"resource_name,omitempty"`
	CustomerID   string   `json:"customer_id,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// LinkedAccount is a read-only projection of a client account under a manager.
type LinkedAccount struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// ListResult is the uniform envelope for listing linked accounts.
type ListResult struct {
	Success  bool            `json:"success"`
	Accounts []LinkedAccount `json:"accounts,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
}

// MutationResult is the uniform envelope for email and billing mutations.
type MutationResult struct {
	Success      bool     `json:"success"`
	CustomerID   string   `json:"customer_id,omitempty"`
	ResourceName string   `json:"resource_name,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate reports the field-level problems of a creation request.
// An empty slice means the request may be forwarded to the vendor.
func (r *CreateAccountRequest) Validate() []string {
	var errs []string
	if !validAccountName(r.Name) {
		errs = append(errs, "Account name must be 1-100 characters, cannot include <, >, or /.")
	}
	if !currencyRe.MatchString(r.Currency) {
		errs = append(errs, "Currency must be a 3-letter code, e.g. USD, PKR.")
	}
	if !validTimezone(r.Timezone) {
		errs = append(errs, "Time zone must be of the form Region/City (e.g. Asia/Karachi).")
	}
	return errs
}

func validAccountName(name string) bool {
	if len(name) < 1 || len(name) > 100 {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) || r == '<' || r == '>' || r == '/' {
			return false
		}
	}
	return true
}

func validTimezone(tz string) bool {
	if len(tz) < 3 || len(tz) > 50 {
		return false
	}
	for _, part := range strings.Split(tz, "/") {
		if part == "" {
			return false
		}
	}
	return true
}

// IsNumericID reports whether s is a plausible customer id (digits only, non-empty).
func IsNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
