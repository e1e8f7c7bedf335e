package model

// Setting stores an edited livesettings value.
type Setting struct {
	ID    uint   `gorm:"primaryKey"`
	Group string `gorm:"column:group_key;size:100;uniqueIndex:idx_setting_group_key;not null"`
	Key   string `gorm:"column:setting_key;size:100;uniqueIndex:idx_setting_group_key;not null"`
	Value string `gorm:"size:255"`
}

// LongSetting holds values too large for Setting.
type LongSetting struct {
	ID    uint   `gorm:"primaryKey"`
	Group string `gorm:"column:group_key;size:100;uniqueIndex:idx_long_setting_group_key;not null"`
	Key   string `gorm:"column:setting_key;size:100;uniqueIndex:idx_long_setting_group_key;not null"`
	Value string `gorm:"type:text"`
}
