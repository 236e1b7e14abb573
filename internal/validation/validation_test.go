package validation

import (
	"errors"
	"strings"
	"testing"
)

type link struct {
	Label string `json:"label" binding:"required"`
	Link  string `json:"link" binding:"required,startswith=/"`
}

type menu struct {
	Title string `json:"title" binding:"required,max=5"`
	Items []link `json:"navItems" binding:"dive"`
}

func TestStruct_ReportsJSONPaths(t *testing.T) {
	err := Struct(menu{Title: "too long", Items: []link{{Label: "Home", Link: "/"}, {Label: "Blog", Link: "blog"}}})

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *Error", err)
	}

	got := map[string]string{}
	for _, f := range verr.FieldErrors() {
		got[f.Field] = f.Rule
		if f.Message == "" {
			t.Fatalf("field %q has no message", f.Field)
		}
	}
	want := map[string]string{"title": "max", "navItems[1].link": "startswith"}
	if len(got) != len(want) {
		t.Fatalf("fields = %v", got)
	}
	for field, rule := range want {
		if got[field] != rule {
			t.Fatalf("fields = %v, want %s=%s", got, field, rule)
		}
	}
}

func TestField(t *testing.T) {
	var verr *Error
	if !errors.As(Field("role", "oneof", "bad role"), &verr) {
		t.Fatalf("Field should build *Error")
	}
	if fe := verr.FieldErrors(); len(fe) != 1 || fe[0].Field != "role" {
		t.Fatalf("FieldErrors = %+v", fe)
	}
}

func TestStruct_MaxBytesCountsBytes(t *testing.T) {
	type secret struct {
		Password string `json:"password" binding:"max=72,maxbytes=72"`
	}

	if err := Struct(secret{Password: strings.Repeat("a", 72)}); err != nil {
		t.Fatalf("72 ascii bytes should pass: %v", err)
	}

	var verr *Error
	if !errors.As(Struct(secret{Password: strings.Repeat("é", 40)}), &verr) {
		t.Fatalf("80 bytes should fail")
	}
	fe := verr.FieldErrors()
	if len(fe) != 1 || fe[0].Field != "password" || fe[0].Rule != "maxbytes" || fe[0].Message != "must be at most 72 bytes" {
		t.Fatalf("FieldErrors = %+v", fe)
	}
}
