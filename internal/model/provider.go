package model

import "time"

// RoleProvider is the JWT role claim carried by provider accounts.
const RoleProvider = "PROVIDER"

// Provider is an account allowed to manage slots and reservations on the
// backend.  It mirrors the `providers` table.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login email.
//  PasswordHash – bcrypt hash of the password.
//  DisplayName  – name shown in slot CreatedBy.
//  IsActive     – disabled accounts cannot log in.
//  CreatedAt    – creation timestamp.
type Provider struct {
    ID           uint64    // providers.id
    Email        string    // providers.email
    PasswordHash string    // providers.password_hash
    DisplayName  string    // providers.display_name
    IsActive     bool      // providers.is_active
    CreatedAt    time.Time // providers.created_at
}
