package content

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/sitehub/internal/validation"
)

var (
	ErrNotFound        = errors.New("content not found")
	ErrAlreadyExists   = errors.New("content already exists for this account")
	ErrNotOwner        = errors.New("content belongs to another account")
	ErrImageRequired   = errors.New("an image is required for this content type")
	ErrNothingToUpdate = errors.New("no changes supplied")
)

type Kind string

const (
	KindBanner       Kind = "banner"
	KindBlog         Kind = "blog"
	KindTestimonial  Kind = "testimonial"
	KindSpecialOffer Kind = "special_offer"
	KindProduct      Kind = "product"
	KindAbout        Kind = "about"
)

var Kinds = []Kind{KindBanner, KindBlog, KindTestimonial, KindSpecialOffer, KindProduct, KindAbout}

// Rules are the per-kind field constraints. Zero max means unbounded.
type Rules struct {
	TitleRequired       bool
	TitleMax            int
	HeadTitleRequired   bool
	DescriptionRequired bool
	DescriptionMax      int
	ImageRequired       bool
}

var kindRules = map[Kind]Rules{
	KindBanner:       {TitleMax: 200, DescriptionMax: 1000, ImageRequired: true},
	KindBlog:         {TitleRequired: true, TitleMax: 200, DescriptionRequired: true},
	KindTestimonial:  {TitleRequired: true, TitleMax: 200, HeadTitleRequired: true, DescriptionRequired: true, DescriptionMax: 2000},
	KindSpecialOffer: {TitleRequired: true, TitleMax: 200, DescriptionRequired: true, DescriptionMax: 2000, ImageRequired: true},
	KindProduct:      {TitleRequired: true, TitleMax: 200, ImageRequired: true},
	KindAbout:        {TitleRequired: true, TitleMax: 200, DescriptionRequired: true},
}

func (k Kind) Valid() bool {
	_, ok := kindRules[k]
	return ok
}

func (k Kind) Rules() Rules {
	return kindRules[k]
}

type Entry struct {
	ID          string    `json:"id" bson:"_id"`
	Kind        Kind      `json:"kind" bson:"kind"`
	OwnerID     string    `json:"ownerId" bson:"owner_id"`
	Title       string    `json:"title" bson:"title"`
	HeadTitle   string    `json:"headTitle,omitempty" bson:"head_title,omitempty"`
	Description string    `json:"description" bson:"description"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// EntryInput is bound from multipart forms; nil means "not supplied".
type EntryInput struct {
	Title       *string `form:"title" json:"title"`
	HeadTitle   *string `form:"headTitle" json:"headTitle"`
	Description *string `form:"description" json:"description"`
}

func (in EntryInput) Empty() bool {
	return in.Title == nil && in.HeadTitle == nil && in.Description == nil
}

// Apply copies supplied fields onto e, trimming whitespace.
func (in EntryInput) Apply(e *Entry) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.HeadTitle != nil {
		e.HeadTitle = strings.TrimSpace(*in.HeadTitle)
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
}

// Validate checks e against its kind's rules. hasImage reports whether an
// image is attached or about to be.
func (e Entry) Validate(hasImage bool) error {
	r := e.Kind.Rules()
	var fields []validation.FieldError

	check := func(field, value string, required bool, max int) {
		if required && value == "" {
			fields = append(fields, validation.FieldError{Field: field, Rule: "required", Message: "is required"})
			return
		}
		if max > 0 && utf8.RuneCountInString(value) > max {
			fields = append(fields, validation.FieldError{Field: field, Rule: "max", Param: strconv.Itoa(max), Message: "must be at most " + strconv.Itoa(max)})
		}
	}

	check("title", e.Title, r.TitleRequired, r.TitleMax)
	check("headTitle", e.HeadTitle, r.HeadTitleRequired, 200)
	check("description", e.Description, r.DescriptionRequired, r.DescriptionMax)

	if r.ImageRequired && !hasImage {
		fields = append(fields, validation.FieldError{Field: "image", Rule: "required", Message: "is required"})
	}

	if len(fields) > 0 {
		return &validation.Error{Fields: fields}
	}
	return nil
}

type EntryFilter struct {
	Kind    Kind
	OwnerID string
	Limit   int
}
