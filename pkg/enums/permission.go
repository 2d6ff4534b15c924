package enums

import "fmt"

// Permission is the effective access level a user holds on a company.
// The zero value PermissionNone means no access.
type Permission string

const (
	PermissionNone  Permission = ""
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
	PermissionOwner Permission = "owner"
)

var validPermissions = []Permission{
	PermissionRead,
	PermissionWrite,
	PermissionAdmin,
	PermissionOwner,
}

// membership rows never store owner; ownership lives on the company.
var assignablePermissions = []Permission{
	PermissionRead,
	PermissionWrite,
	PermissionAdmin,
}

var permissionRank = map[Permission]int{
	PermissionNone:  0,
	PermissionRead:  1,
	PermissionWrite: 2,
	PermissionAdmin: 3,
	PermissionOwner: 4,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known, non-empty Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsAssignable reports whether the permission may be stored on a membership.
func (p Permission) IsAssignable() bool {
	for _, candidate := range assignablePermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// Rank orders permissions: owner > admin > write > read > none.
func (p Permission) Rank() int {
	return permissionRank[p]
}

// Satisfies reports whether p grants at least the required level.
func (p Permission) Satisfies(required Permission) bool {
	if p == PermissionNone {
		return false
	}
	return p.Rank() >= required.Rank()
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return PermissionNone, fmt.Errorf("invalid permission %q", value)
}

// ParseMembershipPermission converts raw input into a permission a membership can hold.
func ParseMembershipPermission(value string) (Permission, error) {
	for _, candidate := range assignablePermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return PermissionNone, fmt.Errorf("invalid membership permission %q", value)
}
