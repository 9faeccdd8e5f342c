package vaultmodel

import "regexp"

// nameGrammar matches project names, secret keys, and SSH identity names:
// letters, digits, '-', '_', '.', length 1-64.
var nameGrammar = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidName reports whether name matches the shared name grammar used by
// projects, secrets, and SSH identities.
func ValidName(name string) bool {
	return nameGrammar.MatchString(name)
}
