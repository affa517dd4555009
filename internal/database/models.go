package database

import (
	"time"

	"gorm.io/gorm"
)

// Vacancy 表示一个招聘岗位。候选人第一次投递时若没有任何岗位，会懒创建默认岗位。
type Vacancy struct {
	gorm.Model
	Title       string `gorm:"size:160;not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`

	Applications []Application
}

// Candidate 表示通过 Telegram mini-app 投递的候选人，按 tg_user_id 去重。
type Candidate struct {
	gorm.Model
	TgUserID   int64  `gorm:"uniqueIndex;not null"`
	TgUsername string `gorm:"size:80"`

	Applications []Application
}

// Application 表示一份求职申请。
// Status 只允许 status.go 中的四个取值；CreatedAt 写入后不再变更。
type Application struct {
	gorm.Model
	CandidateID uint `gorm:"index;not null"`
	VacancyID   uint `gorm:"index;not null"`

	FullName  string     `gorm:"size:160;not null"`
	Phone     string     `gorm:"size:40;not null"`
	BirthDate *time.Time `gorm:"type:date"`

	Nationality string `gorm:"size:80"`
	Address     string `gorm:"size:255"`
	Gender      string `gorm:"size:16"`

	// 上一份工作经历
	PrevJob            string `gorm:"size:255"`
	PrevJobDuration    string `gorm:"size:80"`
	PrevJobLeaveReason string `gorm:"size:255"`

	IsMarried      bool   `gorm:"not null;default:false"`
	Source         string `gorm:"size:255"`
	DesiredSalary  string `gorm:"size:80"`
	PreferredShift string `gorm:"size:16"`
	WhyHireFacts   string `gorm:"type:text"`

	PhotoURL string `gorm:"size:255"`

	Status ApplicationStatus `gorm:"size:16;not null;default:new;index"`

	Candidate Candidate
	Vacancy   Vacancy
}

// Employer 表示可以审核申请的 HR。只有 is_active 的记录参与授权与通知。
type Employer struct {
	gorm.Model
	TgUserID int64        `gorm:"uniqueIndex;not null"`
	Role     EmployerRole `gorm:"size:16;not null"`
	IsActive bool         `gorm:"not null;default:true"`
}

// EmployerInvite 是一次性邀请令牌：首次成功兑换后 is_used 永久为 true。
type EmployerInvite struct {
	gorm.Model
	Token  string       `gorm:"size:128;uniqueIndex;not null"`
	Role   EmployerRole `gorm:"size:16;not null"`
	IsUsed bool         `gorm:"not null;default:false"`
}

// DefaultVacancyTitle 是懒创建的默认岗位标题（按标题约定唯一）。
const DefaultVacancyTitle = "Umumiy ariza"
