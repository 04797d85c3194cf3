// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package models

import "time"

// User is an account identified by a unique email address. The password
// is only ever stored as a bcrypt digest, and IsVerified flips to true
// on successful email confirmation.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	IsVerified     bool      `db:"is_verified" json:"is_verified"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
