package auth

import "libraryhub/pkg/models"

type Permission string

const (
	// PermCirculate covers patron actions: borrowing, reserving, fines and
	// notifications for the caller's own account.
	PermCirculate Permission = "circulate"
	// PermManageLoans covers the librarian back office: all borrowings,
	// reservations and fines.
	PermManageLoans Permission = "loans:manage"
	// PermManageCatalog covers book and genre maintenance.
	PermManageCatalog Permission = "catalog:manage"
	// PermManageUsers covers the admin console: roles and membership status.
	PermManageUsers Permission = "users:manage"
)

var rolePermissions = map[models.Role][]Permission{
	models.RoleUser:      {PermCirculate},
	models.RoleLibrarian: {PermCirculate, PermManageLoans, PermManageCatalog},
	models.RoleAdmin:     {PermCirculate, PermManageLoans, PermManageCatalog, PermManageUsers},
}

func Allowed(role models.Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
