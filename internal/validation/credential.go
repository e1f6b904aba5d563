// Package validation checks setup inputs before anything is sent to splunkd.
package validation

import (
	"regexp"
	"strings"
)

// Region selects the Opsgenie region, and with it the realm the API key is
// filed under.
type Region string

const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
)

// Regions returns the supported regions in display order.
func Regions() []Region {
	return []Region{RegionUS, RegionEU}
}

// Realms returns the supported regions as realm names.
func Realms() []string {
	regions := Regions()
	realms := make([]string, len(regions))
	for i, r := range regions {
		realms[i] = string(r)
	}
	return realms
}

// Violation messages shown to the user.
const (
	MsgInvalidCredential = "Please provide a valid API Key."
	MsgInvalidRegion     = "Region should be either us or eu"
)

var credentialPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Violation is a single failed input check.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is the ordered result of a validation; empty means valid.
type Violations []Violation

func (v Violations) Error() string {
	return strings.Join(v.Messages(), "; ")
}

// Messages returns the violation messages in order.
func (v Violations) Messages() []string {
	msgs := make([]string, len(v))
	for i, violation := range v {
		msgs[i] = violation.Message
	}
	return msgs
}

// Err returns v as an error, or nil when there are no violations.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Sanitize trims surrounding whitespace from user input.
func Sanitize(s string) string {
	return strings.TrimSpace(s)
}

// ValidateCredential requires a canonical 8-4-4-4-12 hexadecimal UUID.
func ValidateCredential(s string) Violations {
	if credentialPattern.MatchString(Sanitize(s)) {
		return nil
	}
	return Violations{{Field: "api_key", Message: MsgInvalidCredential}}
}

// ValidateRegion requires r to be exactly one of Regions().
func ValidateRegion(r string) Violations {
	if IsRegion(r) {
		return nil
	}
	return Violations{{Field: "region", Message: MsgInvalidRegion}}
}

// IsRegion reports whether r names a supported region.
func IsRegion(r string) bool {
	for _, region := range Regions() {
		if string(region) == r {
			return true
		}
	}
	return false
}

// ValidateInputs runs every check, credential first.
func ValidateInputs(credential, region string) Violations {
	var all Violations
	all = append(all, ValidateCredential(credential)...)
	all = append(all, ValidateRegion(region)...)
	return all
}
