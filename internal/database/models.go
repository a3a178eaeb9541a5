package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string       `gorm:"uniqueIndex;size:64"`
	PasswordHash string       `gorm:"size:255"`
	Resumes      []ResumeFile `gorm:"constraint:OnDelete:CASCADE"`
}

// ResumeFile 表示一次解析成功（或失败）的简历处理记录。
// RecordData 存放规范化后的 ResumeRecord JSON。
type ResumeFile struct {
	gorm.Model
	Filename         string `gorm:"size:255"`
	OriginalFileType string `gorm:"size:10"`
	FileSize         int64
	RecordData       datatypes.JSON `gorm:"type:jsonb"`
	Status           string         `gorm:"size:32"`
	SourceObjectKey  string         `gorm:"size:512"`
	PdfObjectKey     string         `gorm:"size:512"`
	UserID           uint           `gorm:"index"`
	User             User           `gorm:"constraint:OnDelete:CASCADE"`
}
