// Package routing 按角色决定登录后的落地页与可访问前缀
package routing

import (
	"strings"

	"societyhub-data/internal/domain"
)

// 各角色的落地页路径
const (
	PathAdmin    = "/admin/dashboard"
	PathOwner    = "/owner/dashboard"
	PathTenant   = "/tenant/dashboard"
	PathSecurity = "/security/dashboard"
	PathStaff    = "/staff/dashboard"
)

var landingPaths = map[domain.Role]string{
	domain.RoleAdmin:    PathAdmin,
	domain.RoleOwner:    PathOwner,
	domain.RoleTenant:   PathTenant,
	domain.RoleSecurity: PathSecurity,
	domain.RoleStaff:    PathStaff,
}

// 各角色允许进入的路径前缀；公共前缀所有已登录角色可用
var allowedPrefixes = map[domain.Role][]string{
	domain.RoleAdmin:    {"/admin"},
	domain.RoleOwner:    {"/owner"},
	domain.RoleTenant:   {"/tenant"},
	domain.RoleSecurity: {"/security"},
	domain.RoleStaff:    {"/staff"},
}

var sharedPrefixes = []string{"/profile", "/notifications", "/help"}

var displayNames = map[domain.Role]string{
	domain.RoleAdmin:    "Administrator",
	domain.RoleOwner:    "Flat Owner",
	domain.RoleTenant:   "Tenant",
	domain.RoleSecurity: "Security",
	domain.RoleStaff:    "Staff",
}

// LandingRoute 返回角色的登录落地页；未知角色按租户处理（全函数，不报错）
func LandingRoute(role domain.Role) string {
	if path, ok := landingPaths[role]; ok {
		return path
	}
	return PathTenant
}

// CanEnter 判断角色是否在路由声明的允许角色集合中
// 不做任何角色特判：集合为空则一律拒绝
func CanEnter(role domain.Role, allowed []domain.Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

// CanEnterPath 按路径前缀判断可达性：本角色前缀 + 公共前缀
// 适用于没有逐路由角色声明的场景
func CanEnterPath(role domain.Role, path string) bool {
	for _, prefix := range sharedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, prefix := range allowedPrefixes[role] {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RoleDisplayName 角色的展示名；未知角色原样返回
func RoleDisplayName(role domain.Role) string {
	if name, ok := displayNames[role]; ok {
		return name
	}
	return string(role)
}
