package model

// Management roles accepted by the staff login flow.
const (
	RoleManager   = "manager"
	RoleAttendant = "attendant"
)

// ManagementAccount is a staff credential row from the
// `management_accounts` table. Accounts exist only to gate the
// management endpoints; they have no lifecycle beyond authentication.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – "manager" or "attendant".
type ManagementAccount struct {
	ID           uint64 // management_accounts.id
	Username     string // management_accounts.username
	PasswordHash string // management_accounts.password_hash
	Role         string // management_accounts.role
}
