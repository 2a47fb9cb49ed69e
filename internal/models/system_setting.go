package models

// SystemSetting is the single persisted row backing process-wide settings.
// It is read once at startup into config.Settings and written back on admin
// updates; request handlers never query this table directly.
type SystemSetting struct {
	BaseModel
	AppName            string `gorm:"size:100;default:'Clinic EHR'" json:"appName"`
	AppVersion         string `gorm:"size:20;default:'1.0.0'" json:"appVersion"`
	MaintenanceMode    bool   `gorm:"default:false" json:"maintenanceMode"`
	MaxUploadSizeMB    int    `gorm:"default:10" json:"maxUploadSize"`
	SessionTimeoutMin  int    `gorm:"default:30" json:"sessionTimeout"`
	EmailNotifications bool   `gorm:"default:true" json:"emailNotifications"`
	SMSNotifications   bool   `gorm:"default:true" json:"smsNotifications"`
	BackupEnabled      bool   `gorm:"default:true" json:"backupEnabled"`
	BackupFrequency    string `gorm:"size:10;default:'daily'" json:"backupFrequency"`
	Theme              string `gorm:"size:10;default:'light'" json:"theme"`
	Language           string `gorm:"size:10;default:'en'" json:"language"`
}
