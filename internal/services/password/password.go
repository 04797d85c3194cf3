// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package password provides one-way hashing of user passwords.
package password

import "golang.org/x/crypto/bcrypt"

// Hash returns the bcrypt digest of a plaintext password.
func Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the plaintext password matches the digest.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
