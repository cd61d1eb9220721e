package models

import (
	"strings"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
)

type PostKind string

const (
	KindLost  PostKind = "lost"
	KindFound PostKind = "found"
)

func (k PostKind) Valid() bool { return k == KindLost || k == KindFound }

type PostStatus string

// Only two states are reachable; "expired" is reserved and never written.
const (
	StatusActive PostStatus = "active"
	StatusFound  PostStatus = "found"
)

func (s PostStatus) Valid() bool { return s == StatusActive || s == StatusFound }

// Toggled returns the other reachable status.
func (s PostStatus) Toggled() PostStatus {
	if s == StatusFound {
		return StatusActive
	}
	return StatusFound
}

type Post struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Kind        PostKind   `json:"type"`
	ItemName    string     `json:"item_name"`
	Category    string     `json:"item_category"`
	Description string     `json:"description"`
	ImageRef    string     `json:"image,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	OccurredAt  string     `json:"time"`
	Location    string     `json:"location"`
	Status      PostStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	Publisher   string     `json:"publisher,omitempty"`
}

func (p *Post) Normalize() {
	p.ItemName = strings.TrimSpace(p.ItemName)
	p.Category = strings.TrimSpace(p.Category)
	p.Description = strings.TrimSpace(p.Description)
	p.OccurredAt = strings.TrimSpace(p.OccurredAt)
	p.Location = strings.TrimSpace(p.Location)
	p.Kind = PostKind(strings.ToLower(strings.TrimSpace(string(p.Kind))))
}

func (p *Post) Validate() error {
	var errs validate.Errs
	errs.Add(validate.Required("item_name", p.ItemName))
	errs.Add(validate.Required("location", p.Location))
	errs.Add(validate.OneOf("type", string(p.Kind), string(KindLost), string(KindFound)))
	return errs.OrNil()
}

// PostPatch lists the fields an owner may change. Nil means "keep".
type PostPatch struct {
	Kind        *PostKind
	ItemName    *string
	Category    *string
	Description *string
	ImageRef    *string
	OccurredAt  *string
	Location    *string
}

func (p PostPatch) Empty() bool {
	return p.Kind == nil && p.ItemName == nil && p.Category == nil && p.Description == nil &&
		p.ImageRef == nil && p.OccurredAt == nil && p.Location == nil
}

func (p *PostPatch) Normalize() {
	for _, s := range []*string{p.ItemName, p.Category, p.Description, p.OccurredAt, p.Location} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if p.Kind != nil {
		k := PostKind(strings.ToLower(strings.TrimSpace(string(*p.Kind))))
		p.Kind = &k
	}
}

func (p PostPatch) Validate() error {
	if p.Empty() {
		return validate.Errs{{Field: "fields", Msg: "no updatable field supplied"}}
	}
	var errs validate.Errs
	if p.ItemName != nil {
		errs.Add(validate.Required("item_name", *p.ItemName))
	}
	if p.Location != nil {
		errs.Add(validate.Required("location", *p.Location))
	}
	if p.Kind != nil {
		errs.Add(validate.OneOf("type", string(*p.Kind), string(KindLost), string(KindFound)))
	}
	return errs.OrNil()
}

// Apply copies the supplied fields onto post.
func (p PostPatch) Apply(post *Post) {
	if p.Kind != nil {
		post.Kind = *p.Kind
	}
	if p.ItemName != nil {
		post.ItemName = *p.ItemName
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Description != nil {
		post.Description = *p.Description
	}
	if p.ImageRef != nil {
		post.ImageRef = *p.ImageRef
	}
	if p.OccurredAt != nil {
		post.OccurredAt = *p.OccurredAt
	}
	if p.Location != nil {
		post.Location = *p.Location
	}
}
