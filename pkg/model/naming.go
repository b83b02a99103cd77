package model

import "regexp"

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckName applies the naming rule shared by attribute names and generated output names.
// Names are case-sensitive, must not be empty, may only contain ASCII letters, digits and
// underscores, and must not start with a digit.
func CheckName(name, what string) error {
	switch {
	case name == "":
		return newValidationError(KindMalformed, what, "cannot be empty")
	case name[0] >= '0' && name[0] <= '9':
		return newValidationError(KindMalformed, what, "%q cannot start with a digit", name)
	case !validName.MatchString(name):
		return newValidationError(KindMalformed, what, "%q can only contain letters, digits and underscores", name)
	}

	return nil
}
