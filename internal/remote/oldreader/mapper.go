package oldreader

import (
	"html"
	"strconv"
	"time"

	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/remote"
)

// Wire types for the GReader-compatible JSON API.

type tagListResponse struct {
	Tags []wireTag `json:"tags"`
}

type wireTag struct {
	ID     string `json:"id"`
	SortID string `json:"sortid"`
}

type subscriptionListResponse struct {
	Subscriptions []wireSubscription `json:"subscriptions"`
}

type wireSubscription struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	SortID        string         `json:"sortid"`
	FirstItemMsec string         `json:"firstitemmsec"`
	URL           string         `json:"url"`
	HTMLURL       string         `json:"htmlUrl"`
	Categories    []wireCategory `json:"categories"`
}

type wireCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type streamContentsResponse struct {
	Continuation string     `json:"continuation"`
	Items        []wireItem `json:"items"`
}

type wireItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Published  int64           `json:"published"`
	Updated    int64           `json:"updated"`
	Author     string          `json:"author"`
	Summary    wireSummary     `json:"summary"`
	Origin     wireOrigin      `json:"origin"`
	Alternate  []wireAlternate `json:"alternate"`
	Categories []string        `json:"categories"`
}

type wireSummary struct {
	Direction string `json:"direction"`
	Content   string `json:"content"`
}

type wireOrigin struct {
	StreamID string `json:"streamId"`
	Title    string `json:"title"`
	HTMLURL  string `json:"htmlUrl"`
}

type wireAlternate struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

type itemIDsResponse struct {
	Continuation string    `json:"continuation"`
	ItemRefs     []itemRef `json:"itemRefs"`
}

type itemRef struct {
	ID string `json:"id"`
}

// mapSubscription converts a wire subscription to the domain type.
func mapSubscription(sub wireSubscription) domain.Subscription {
	categories := make([]domain.Category, 0, len(sub.Categories))
	for _, category := range sub.Categories {
		categories = append(categories, domain.Category{
			ID:    category.ID,
			Label: category.Label,
		})
	}
	return domain.Subscription{
		ID:            sub.ID,
		Title:         html.UnescapeString(sub.Title),
		SortID:        sub.SortID,
		FirstItemTime: msecTime(sub.FirstItemMsec),
		URL:           sub.URL,
		HTMLURL:       sub.HTMLURL,
		Categories:    categories,
	}
}

// mapItem converts a wire stream item to a domain article. The remote
// tag vocabulary is resolved here: folder labels become memberships and
// the read state tag becomes the read flag.
func mapItem(item wireItem) domain.Article {
	var folders []string
	isRead := false
	for _, category := range item.Categories {
		switch {
		case category == remote.TagRead:
			isRead = true
		case domain.IsFolderID(category):
			folders = append(folders, category)
		}
	}

	alternates := make([]domain.Alternate, 0, len(item.Alternate))
	for _, alternate := range item.Alternate {
		alternates = append(alternates, domain.Alternate{
			Href:     alternate.Href,
			MIMEType: alternate.Type,
		})
	}

	published := time.Unix(item.Published, 0).UTC()
	updated := published
	if item.Updated > 0 {
		updated = time.Unix(item.Updated, 0).UTC()
	}

	return domain.Article{
		ID:        item.ID,
		Title:     html.UnescapeString(item.Title),
		Published: published,
		Updated:   updated,
		Author:    item.Author,
		Summary: domain.Summary{
			Content:   item.Summary.Content,
			Direction: item.Summary.Direction,
		},
		Origin: domain.Origin{
			StreamID: item.Origin.StreamID,
			Title:    html.UnescapeString(item.Origin.Title),
			HTMLURL:  item.Origin.HTMLURL,
		},
		Alternates: alternates,
		Folders:    folders,
		IsRead:     isRead,
	}
}

// msecTime parses the millisecond-epoch strings the subscription list
// uses for timestamps.
func msecTime(msec string) time.Time {
	value, err := strconv.ParseInt(msec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
