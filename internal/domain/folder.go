package domain

import "strings"

// Folder is a user-defined grouping that subscriptions belong to. Its ID
// is the opaque stream ID assigned by the remote service, in the form
// "user/-/label/<name>".
type Folder struct {
	ID     string
	SortID string
}

// Name returns the human-readable folder name, derived from the trailing
// path segment of the folder ID.
func (f Folder) Name() string {
	if i := strings.LastIndex(f.ID, "/"); i >= 0 {
		return f.ID[i+1:]
	}
	return f.ID
}

// IsFolderID reports whether the given stream ID identifies a folder.
func IsFolderID(id string) bool {
	return strings.Contains(id, "/label/")
}

// IsSubscriptionID reports whether the given stream ID identifies a
// subscription feed.
func IsSubscriptionID(id string) bool {
	return strings.HasPrefix(id, "feed/")
}
