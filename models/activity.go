package models

import (
	"time"
)

type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Time      time.Time `gorm:"not null" json:"time"`
	Location  string    `gorm:"size:255" json:"location"`
	Details   string    `gorm:"size:2000" json:"details"`
	GroupID   uint      `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"-"`

	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

// ActivityInput is used for creating activities. Time is RFC 3339.
type ActivityInput struct {
	GroupID  uint   `json:"groupID"`
	Name     string `json:"name"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Details  string `json:"details"`
}

type DeleteActivityInput struct {
	ActivityID uint `json:"activityID"`
	GroupID    uint `json:"groupID"`
}

// ActivityResponse carries every field except the owning group.
type ActivityResponse struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Time     time.Time `json:"time"`
	Location string    `json:"location"`
	Details  string    `json:"details"`
}

func (a *Activity) ToResponse() ActivityResponse {
	return ActivityResponse{
		ID:       a.ID,
		Name:     a.Name,
		Time:     a.Time,
		Location: a.Location,
		Details:  a.Details,
	}
}
