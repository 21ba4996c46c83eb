package domain

// UnreadCounts maps a folder or subscription stream ID to its number of
// unread articles.
type UnreadCounts map[string]int

// Total returns the total number of unread articles, counting each
// article once via its subscription (folder counts overlap their
// subscriptions' counts).
func (u UnreadCounts) Total() int {
	total := 0
	for id, count := range u {
		if IsSubscriptionID(id) {
			total += count
		}
	}
	return total
}
