package models

import (
	"encoding/json"
	"time"
)

// Mode is a user's matching visibility. The zero value means no mode (inactive).
type Mode string

const (
	ModeNone      Mode = ""
	ModeAnonymous Mode = "anonymous"
	ModeVisible   Mode = "visible"
)

func (m Mode) Valid() bool {
	return m == ModeAnonymous || m == ModeVisible
}

// MarshalJSON encodes the empty mode as null.
func (m Mode) MarshalJSON() ([]byte, error) {
	if m == ModeNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

type User struct {
	ID        string    `json:"id" bson:"public_id"`
	Email     string    `json:"email" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`

	Name             string   `json:"name" bson:"name"`
	Bio              string   `json:"bio" bson:"bio"`
	Photo            string   `json:"photo" bson:"photo"`
	Interests        []string `json:"interests" bson:"interests"`
	ProfileCompleted bool     `json:"profileCompleted" bson:"profile_completed"`

	IsActive           bool       `json:"isActive" bson:"is_active"`
	Mode               Mode       `json:"mode" bson:"mode"`
	AnonymousStartedAt *time.Time `json:"anonymousStartedAt" bson:"anonymous_started_at"`
	Location           *Location  `json:"location" bson:"location"`
}

// NewUser returns an inactive user with an empty profile.
func NewUser(id, email string, now time.Time) User {
	return User{
		ID:        id,
		Email:     email,
		CreatedAt: now,
		Interests: []string{},
	}
}

func (u *User) RefreshProfileCompleted() {
	u.ProfileCompleted = u.Name != "" && u.Bio != ""
}

// Profile is the publicly readable part of a user.
type Profile struct {
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Photo     string   `json:"photo"`
	Interests []string `json:"interests"`
}

func (u User) Profile() Profile {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return Profile{
		Name:      u.Name,
		Bio:       u.Bio,
		Photo:     u.Photo,
		Interests: interests,
	}
}

// ProfileUpdate carries a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	Photo     *string   `json:"photo"`
	Interests *[]string `json:"interests"`
}

func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Photo != nil {
		u.Photo = *p.Photo
	}
	if p.Interests != nil && *p.Interests != nil {
		u.Interests = *p.Interests
	}
	u.RefreshProfileCompleted()
}
