package order

import (
	"strings"
)

// Role 操作者角色
type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleSystem Role = "SYSTEM" // 后台任务
)

// Actor 发起状态变更的操作者
type Actor struct {
	Email string
	Role  Role
}

// SystemActor 超时放弃任务使用的内部身份
var SystemActor = Actor{Email: "system@bookstore.local", Role: RoleSystem}

// IsAdmin 管理员和系统身份拥有全部权限
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// Owns 操作者邮箱与给定邮箱一致(忽略大小写),空邮箱不匹配任何人
func (a Actor) Owns(email string) bool {
	if strings.TrimSpace(a.Email) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(email))
}
