//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// Race builds are slow enough already, keep test suites within their timeouts.
	return bcrypt.DefaultCost
}
