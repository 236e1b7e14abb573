package content

import (
	"strings"
	"time"
)

type NavItem struct {
	Label string `json:"label" bson:"label" binding:"required,max=50"`
	Link  string `json:"link" bson:"link" binding:"required,startswith=/,max=200"`
}

// Header is the site navigation bar; each owner has at most one.
type Header struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"ownerId" bson:"owner_id"`
	LogoURL   string    `json:"logoUrl" bson:"logo_url"`
	NavItems  []NavItem `json:"navItems" bson:"nav_items"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// NavItemsInput wraps the nav items so they can be validated with dive.
type NavItemsInput struct {
	Items []NavItem `json:"navItems" binding:"required,max=20,dive"`
}

// Footer is the site footer; each owner has at most one.
type Footer struct {
	ID             string    `json:"id" bson:"_id"`
	OwnerID        string    `json:"ownerId" bson:"owner_id"`
	LogoURL        string    `json:"logoUrl,omitempty" bson:"logo_url,omitempty"`
	FooterImageURL string    `json:"footerImageUrl,omitempty" bson:"footer_image_url,omitempty"`
	Title          string    `json:"title" bson:"title"`
	FAQ            string    `json:"faq" bson:"faq"`
	Career         string    `json:"career" bson:"career"`
	Address        string    `json:"address" bson:"address"`
	Email          string    `json:"email" bson:"email"`
	Phone          string    `json:"phone" bson:"phone"`
	Weekday        string    `json:"weekday" bson:"weekday"`
	Saturday       string    `json:"saturday" bson:"saturday"`
	Terms          string    `json:"terms" bson:"terms"`
	Privacy        string    `json:"privacy" bson:"privacy"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}

type FooterInput struct {
	Title    *string `form:"title" binding:"omitempty,max=200"`
	FAQ      *string `form:"faq" binding:"omitempty,max=500"`
	Career   *string `form:"career" binding:"omitempty,max=500"`
	Address  *string `form:"address" binding:"omitempty,max=300"`
	Email    *string `form:"email" binding:"omitempty,email"`
	Phone    *string `form:"phone" binding:"omitempty,max=30"`
	Weekday  *string `form:"weekday" binding:"omitempty,max=100"`
	Saturday *string `form:"saturday" binding:"omitempty,max=100"`
	Terms    *string `form:"terms" binding:"omitempty,max=500"`
	Privacy  *string `form:"privacy" binding:"omitempty,max=500"`
}

func (in FooterInput) Apply(f *Footer) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	set(&f.Title, in.Title)
	set(&f.FAQ, in.FAQ)
	set(&f.Career, in.Career)
	set(&f.Address, in.Address)
	set(&f.Email, in.Email)
	set(&f.Phone, in.Phone)
	set(&f.Weekday, in.Weekday)
	set(&f.Saturday, in.Saturday)
	set(&f.Terms, in.Terms)
	set(&f.Privacy, in.Privacy)
}
