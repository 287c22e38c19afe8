// Package domain defines the persistence models for the alert store: the
// dimension tables (senders, groups, keywords, countries, centers) and the
// notifications fact table that references them. These types are mapped with
// GORM and form the core data layer of the monitoring backend.
package domain

import "time"

// Keyword and chat sentinels. Traffic from monitored senders is stored even
// when no keyword matched, attributed to KeywordAllMessages; entries recorded
// through the dashboard use the Manual sentinels instead of real chat data.
const (
	KeywordAllMessages = "ALL_MESSAGES"
	KeywordManual      = "Manual"
	SenderManual       = "Manual"
	GroupManual        = "Manual"
	ChatIDManual       = "manual"
)

// Sender is a dimension entity holding the display name of a message author.
// Rows are deduplicated by name; the surrogate ID is referenced from
// Notification.SenderID.
type Sender struct {
	ID   uint   `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:ux_senders_name"`
}

// TableName returns the database table name for Sender.
func (Sender) TableName() string { return "senders" }

// Group is a dimension entity holding the title of an originating chat/group.
type Group struct {
	ID   uint   `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:ux_groups_name"`
}

// TableName returns the database table name for Group.
func (Group) TableName() string { return "groups" }

// Keyword is a dimension entity holding a matched keyword (or a sentinel such
// as "ALL_MESSAGES" for traffic that matched no keyword, or "Manual" for
// dashboard-recorded entries).
type Keyword struct {
	ID   uint   `json:"id"   gorm:"primaryKey;autoIncrement"`
	Word string `json:"word" gorm:"type:varchar(255);not null;uniqueIndex:ux_keywords_word"`
}

// TableName returns the database table name for Keyword.
func (Keyword) TableName() string { return "keywords" }

// Country is a dimension entity extracted from message headers. Code and Flag
// are optional presentation metadata; rows are deduplicated by name.
type Country struct {
	ID   uint   `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:ux_countries_name"`
	Code string `json:"code,omitempty" gorm:"type:varchar(8)"`
	Flag string `json:"flag,omitempty" gorm:"type:varchar(16)"`
}

// TableName returns the database table name for Country.
func (Country) TableName() string { return "countries" }

// Center is a dimension entity for a visa application center. Center names
// are only unique within their owning country, so the natural key is the
// (name, country_id) pair rather than the name alone.
type Center struct {
	ID        uint   `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string `json:"name"       gorm:"type:varchar(255);not null;uniqueIndex:ux_centers_name_country,priority:1"`
	CountryID uint   `json:"country_id" gorm:"not null;uniqueIndex:ux_centers_name_country,priority:2"`

	Country Country `json:"-" gorm:"foreignKey:CountryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Center.
func (Center) TableName() string { return "centers" }

// Notification is the fact record for one relayed message. Country and Center
// are nullable because header extraction can fail; a non-nil CenterID always
// implies a non-nil CountryID.
//
// Timestamp is the event time in epoch milliseconds, assigned by the message
// source and used for ordering and range filters. CreatedAt is the ingestion
// time and is informational only.
type Notification struct {
	ID             uint      `json:"id"               gorm:"primaryKey;autoIncrement"`
	Message        string    `json:"message"          gorm:"type:text"`
	SenderID       uint      `json:"sender_id"        gorm:"not null;index:idx_notif_sender"`
	GroupID        uint      `json:"group_id"         gorm:"not null;index:idx_notif_group"`
	KeywordID      uint      `json:"keyword_id"       gorm:"not null;index:idx_notif_keyword"`
	CountryID      *uint     `json:"country_id"       gorm:"index:idx_notif_country"`
	CenterID       *uint     `json:"center_id"        gorm:"index:idx_notif_center"`
	ChatID         string    `json:"chat_id"          gorm:"type:varchar(64);not null;default:'manual'"`
	IsKeywordMatch bool      `json:"is_keyword_match" gorm:"not null;default:false;index:idx_notif_match"`
	IsPrime        bool      `json:"is_prime"         gorm:"not null;default:false;index:idx_notif_prime"`
	Timestamp      int64     `json:"timestamp"        gorm:"not null;index:idx_notif_timestamp,sort:desc"`
	CreatedAt      time.Time `json:"created_at"`

	Sender  Sender   `json:"-" gorm:"foreignKey:SenderID;references:ID"`
	Group   Group    `json:"-" gorm:"foreignKey:GroupID;references:ID"`
	Keyword Keyword  `json:"-" gorm:"foreignKey:KeywordID;references:ID"`
	Country *Country `json:"-" gorm:"foreignKey:CountryID;references:ID"`
	Center  *Center  `json:"-" gorm:"foreignKey:CenterID;references:ID"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// NotificationView is the denormalized read model returned by list, search,
// and catch-up queries: the fact row with its dimension names joined back in.
// JSON field names match the payload the dashboard consumes.
type NotificationView struct {
	ID             uint   `json:"id"             gorm:"column:id"`
	Keyword        string `json:"keyword"        gorm:"column:keyword"`
	Message        string `json:"message"        gorm:"column:message"`
	Group          string `json:"group"          gorm:"column:group_name"`
	Sender         string `json:"sender"         gorm:"column:sender"`
	Country        string `json:"country,omitempty" gorm:"column:country"`
	Center         string `json:"center,omitempty"  gorm:"column:center"`
	ChatID         string `json:"chatId"         gorm:"column:chat_id"`
	IsKeywordMatch bool   `json:"isKeywordMatch" gorm:"column:is_keyword_match"`
	IsPrime        bool   `json:"isPrime"        gorm:"column:is_prime"`
	Timestamp      int64  `json:"timestamp"      gorm:"column:timestamp"`
	CreatedAt      string `json:"createdAt"      gorm:"column:created_at"`
}
