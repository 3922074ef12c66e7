package models

import (
	"time"
)

// ImagePrefix is the media subpath uploaded post images are stored under.
const ImagePrefix = "posts/"

// Post is a single authored entry, optionally filed under a Group.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	Group     *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty"` // relative media path, e.g. "posts/cat.gif"
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAuthoredBy reports whether user may mutate the post.
func (p *Post) IsAuthoredBy(user *User) bool {
	return user != nil && p.AuthorID == user.ID
}

// ImageURL returns the public URL of the attached image, or "" if none.
func (p *Post) ImageURL() string {
	if p.Image == "" {
		return ""
	}
	return "/media/" + p.Image
}

// PostForm defines the fields of the create/edit post form.
// Group holds the raw submitted value so an invalid id can be reported inline.
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group" validate:"omitempty,numeric"`
	ClearImage bool   `form:"image-clear"`
}
