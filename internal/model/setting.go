package model

import "strconv"

// Setting is one persisted key/value pair.
type Setting struct {
	Key   string `gorm:"primaryKey;size:64" json:"key"`
	Value string `gorm:"size:256;not null" json:"value"`
}

const (
	SettingPushEnabled  = "push_notifications_enabled"
	SettingPushInterval = "push_notification_interval_minutes"
	SettingReminderDays = "reminder_days"
)

// Settings is the typed view of the settings table.
type Settings struct {
	PushNotificationsEnabled        bool `json:"push_notifications_enabled"`
	PushNotificationIntervalMinutes int  `json:"push_notification_interval_minutes"`
	ReminderDays                    int  `json:"reminder_days"`
}

// DefaultSettings is returned for keys that were never saved.
func DefaultSettings() Settings {
	return Settings{
		PushNotificationsEnabled:        false,
		PushNotificationIntervalMinutes: 60,
		ReminderDays:                    7,
	}
}

// Validate reports the first out-of-range value.
func (s Settings) Validate() error {
	if s.PushNotificationIntervalMinutes < 1 {
		return errInvalidSetting(SettingPushInterval)
	}
	if s.ReminderDays < 1 || s.ReminderDays > 365 {
		return errInvalidSetting(SettingReminderDays)
	}
	return nil
}

// Rows flattens s into key/value rows.
func (s Settings) Rows() []Setting {
	return []Setting{
		{Key: SettingPushEnabled, Value: strconv.FormatBool(s.PushNotificationsEnabled)},
		{Key: SettingPushInterval, Value: strconv.Itoa(s.PushNotificationIntervalMinutes)},
		{Key: SettingReminderDays, Value: strconv.Itoa(s.ReminderDays)},
	}
}

// SettingsFromRows builds Settings from stored rows. Missing or unparseable
// values keep their defaults.
func SettingsFromRows(rows []Setting) Settings {
	s := DefaultSettings()
	for _, r := range rows {
		switch r.Key {
		case SettingPushEnabled:
			if v, err := strconv.ParseBool(r.Value); err == nil {
				s.PushNotificationsEnabled = v
			}
		case SettingPushInterval:
			if v, err := strconv.Atoi(r.Value); err == nil && v > 0 {
				s.PushNotificationIntervalMinutes = v
			}
		case SettingReminderDays:
			if v, err := strconv.Atoi(r.Value); err == nil && v > 0 {
				s.ReminderDays = v
			}
		}
	}
	return s
}

type errInvalidSetting string

func (e errInvalidSetting) Error() string { return "invalid value for " + string(e) }
