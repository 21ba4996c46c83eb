package domain

import "testing"

func TestArticle_Link(t *testing.T) {
	a := &Article{}
	if got := a.Link(); got != "" {
		t.Errorf("Link() on article without alternates = %q, want empty", got)
	}
	a.Alternates = []Alternate{
		{Href: "https://example.com/post", MIMEType: "text/html"},
		{Href: "https://example.com/post.amp", MIMEType: "text/html"},
	}
	if got := a.Link(); got != "https://example.com/post" {
		t.Errorf("Link() = %q, want first alternate", got)
	}
}

func TestArticle_InFolder(t *testing.T) {
	a := &Article{Folders: []string{"user/-/label/News"}}
	if !a.InFolder("user/-/label/News") {
		t.Error("expected article to be in its folder")
	}
	if a.InFolder("user/-/label/Other") {
		t.Error("article should not be in an unrelated folder")
	}
}

func TestSubscription_InFolder(t *testing.T) {
	s := Subscription{Categories: []Category{{ID: "user/-/label/News", Label: "News"}}}
	if !s.InFolder("user/-/label/News") {
		t.Error("expected subscription to be in its folder")
	}
	if s.InFolder("user/-/label/Other") {
		t.Error("subscription should not be in an unrelated folder")
	}
}
