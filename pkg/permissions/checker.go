// Package permissions checks the permission lists carried in ERP tokens.
//
// Permission Format:
//   - "*" - Full access
//   - "resource.*" - All actions on a resource (e.g., "attendance.*")
//   - "resource.action" - Specific action (e.g., "attendance.read")
//   - "resource.subresource.action" - Nested permission (e.g., "attendance.timesheets.export")
package permissions

import (
	"strings"
)

// Attendance permissions
const (
	AttendanceRead   = "attendance.read"
	AttendanceWrite  = "attendance.write"
	AttendanceExport = "attendance.timesheets.export"
)

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "attendance.*" matches "attendance.read", "attendance.timesheets.export", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}
