package domain

import "time"

// Category records a subscription's membership of a folder.
type Category struct {
	ID    string
	Label string
}

// Subscription is a single feed source the user follows.
type Subscription struct {
	ID            string
	Title         string
	SortID        string
	FirstItemTime time.Time
	URL           string
	HTMLURL       string
	Categories    []Category
}

// InFolder reports whether the subscription belongs to the given folder.
func (s Subscription) InFolder(folderID string) bool {
	for _, c := range s.Categories {
		if c.ID == folderID {
			return true
		}
	}
	return false
}
