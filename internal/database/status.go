package database

import (
	"fmt"
	"strings"
)

// ApplicationStatus 是申请的处理状态。
// 状态之间不限制迁移顺序：任何状态都可以被改成任何其它状态。
type ApplicationStatus string

const (
	StatusNew      ApplicationStatus = "new"
	StatusInReview ApplicationStatus = "in_review"
	StatusRejected ApplicationStatus = "rejected"
	StatusAccepted ApplicationStatus = "accepted"
)

// AllowedStatuses 按固定顺序列出全部合法状态值。
func AllowedStatuses() []string {
	return []string{
		string(StatusNew),
		string(StatusInReview),
		string(StatusRejected),
		string(StatusAccepted),
	}
}

// ParseApplicationStatus 将外部输入归一化为 ApplicationStatus。
// 大小写不敏感："NEW"、"new"、"New" 都接受。
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	normalized := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case StatusNew, StatusInReview, StatusRejected, StatusAccepted:
		return normalized, nil
	}
	return "", fmt.Errorf("invalid status %q, allowed: %s", raw, strings.Join(AllowedStatuses(), ", "))
}

// EmployerRole 表示 HR 的角色。
type EmployerRole string

const (
	RoleOwner     EmployerRole = "OWNER"
	RoleRecruiter EmployerRole = "RECRUITER"
)

// ParseEmployerRole 将外部输入归一化为 EmployerRole，空串默认 RECRUITER。
func ParseEmployerRole(raw string) (EmployerRole, error) {
	normalized := EmployerRole(strings.ToUpper(strings.TrimSpace(raw)))
	if normalized == "" {
		return RoleRecruiter, nil
	}
	switch normalized {
	case RoleOwner, RoleRecruiter:
		return normalized, nil
	}
	return "", fmt.Errorf("invalid role %q, allowed: OWNER, RECRUITER", raw)
}
