package models

import "fmt"

// Admin "inherits" from User via embedding. The distinguishing fields are Role,
// which is always "admin", and AdminID, an operator-assigned unique identifier.
type Admin struct {
	User
	AdminID string `db:"admin_id" json:"admin_id"`
}

// NewAdmin creates an admin model with Role preset to "admin".
func NewAdmin(username, email, password, adminID string) (*Admin, error) {
	u, err := NewUser(username, email, password)
	if err != nil {
		return nil, err
	}
	u.Role = RoleAdmin
	return &Admin{User: *u, AdminID: adminID}, nil
}

func (a *Admin) String() string {
	return fmt.Sprintf("<Administration %d : %s - %s>", a.ID, a.Username, a.Email)
}
