package content

import (
	"errors"
	"strings"
	"testing"

	"github.com/geocoder89/sitehub/internal/validation"
)

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		hasImage bool
		fields   []string
	}{
		{name: "banner needs image", entry: Entry{Kind: KindBanner}, fields: []string{"image"}},
		{name: "banner with image", entry: Entry{Kind: KindBanner}, hasImage: true},
		{name: "testimonial needs head title", entry: Entry{Kind: KindTestimonial, Title: "t", Description: "d"}, fields: []string{"headTitle"}},
		{name: "blog needs title and description", entry: Entry{Kind: KindBlog}, fields: []string{"title", "description"}},
		{name: "title too long", entry: Entry{Kind: KindAbout, Title: strings.Repeat("a", 201), Description: "d"}, fields: []string{"title"}},
		{name: "product without description", entry: Entry{Kind: KindProduct, Title: "Chair"}, hasImage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate(tt.hasImage)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}

			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *validation.Error", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("fields = %+v, want %v", verr.Fields, tt.fields)
			}
			for i, f := range tt.fields {
				if verr.Fields[i].Field != f {
					t.Fatalf("field[%d] = %q, want %q", i, verr.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestEntryInputApply(t *testing.T) {
	title := "  New  "
	e := Entry{Title: "Old", Description: "keep"}
	EntryInput{Title: &title}.Apply(&e)

	if e.Title != "New" || e.Description != "keep" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestAppointmentVisibleTo(t *testing.T) {
	if !(Appointment{}).VisibleTo("a1") {
		t.Fatalf("unassigned bookings are visible to every admin")
	}
	if (Appointment{OwnerID: "a2"}).VisibleTo("a1") {
		t.Fatalf("bookings for another admin must be hidden")
	}
}
