package domain

import "time"

// Origin identifies the subscription an article was published by.
type Origin struct {
	StreamID string
	Title    string
	HTMLURL  string
}

// Summary is the article's summary text plus its text direction
// ("ltr" or "rtl").
type Summary struct {
	Content   string
	Direction string
}

// Alternate is an alternate representation of an article, normally the
// link to the article on the web.
type Alternate struct {
	Href     string
	MIMEType string
}

// Article is a single article from a subscription. Folders holds the
// stream IDs of the folders the article currently sits in via its
// subscription; read state is tracked explicitly rather than through the
// remote service's tag vocabulary.
type Article struct {
	ID         string
	Title      string
	Published  time.Time
	Updated    time.Time
	Author     string
	Summary    Summary
	Origin     Origin
	Alternates []Alternate
	Folders    []string
	IsRead     bool
}

// Link returns the article's web link, or an empty string if the remote
// service supplied no alternate.
func (a *Article) Link() string {
	if len(a.Alternates) == 0 {
		return ""
	}
	return a.Alternates[0].Href
}

// InFolder reports whether the article sits in the given folder.
func (a *Article) InFolder(folderID string) bool {
	for _, f := range a.Folders {
		if f == folderID {
			return true
		}
	}
	return false
}
