package models

// UserPreference holds per-user display and notification preferences.
// A default row is created lazily the first time preferences are read.
type UserPreference struct {
	BaseModel
	UserID             string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Theme              string `gorm:"size:10;default:'light'" json:"theme"`
	Language           string `gorm:"size:10;default:'en'" json:"language"`
	EmailNotifications bool   `gorm:"default:true" json:"emailNotifications"`
	SMSNotifications   bool   `gorm:"default:true" json:"smsNotifications"`
	AutoBackup         bool   `gorm:"default:false" json:"autoBackup"`
	BackupFrequency    string `gorm:"size:10;default:'daily'" json:"backupFrequency"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
