// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// UserRole is the authorization level stored on an account and in its access token.
type UserRole string

const (
	RoleMember UserRole = "member"
	RoleAdmin  UserRole = "admin"
)

var roleRank = map[UserRole]int{
	RoleMember: 1,
	RoleAdmin:  2,
}

func (role UserRole) Valid() bool {
	_, ok := roleRank[role]
	return ok
}

// AtLeast reports whether role grants everything target grants. Unknown roles grant nothing.
func (role UserRole) AtLeast(target UserRole) bool {
	rank, ok := roleRank[role]
	return ok && rank >= roleRank[target]
}

// Toggled flips between member and admin, the only transition the admin screen offers.
func (role UserRole) Toggled() UserRole {
	if role == RoleAdmin {
		return RoleMember
	}
	return RoleAdmin
}
