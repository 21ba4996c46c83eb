package oldreader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/remote"
)

// DefaultBaseURL is the production endpoint of The Old Reader.
const DefaultBaseURL = "https://theoldreader.com"

const apiPrefix = "/reader/api/0"

// Client implements the remote.Client interface against The Old
// Reader's GReader-compatible JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenStore
	token   string
}

var _ remote.Client = (*Client)(nil)

// New creates a client for The Old Reader using the given token store.
func New(tokens *TokenStore) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

// Login authenticates against the remote service with the user's email
// and password, storing the resulting token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{
		"client":      {"oldnews"},
		"accountType": {"HOSTED_OR_GOOGLE"},
		"service":     {"reader"},
		"Email":       {email},
		"Passwd":      {password},
		"output":      {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/accounts/ClientLogin", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &remote.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var auth struct {
		Auth string `json:"Auth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if auth.Auth == "" {
		return fmt.Errorf("login response carried no auth token")
	}

	c.token = auth.Auth
	if err := c.tokens.Save(auth.Auth); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	return nil
}

// ensureToken lazily loads the stored auth token if this client has
// not authenticated yet.
func (c *Client) ensureToken() error {
	if c.token != "" {
		return nil
	}
	token, err := c.tokens.Load()
	if err != nil {
		return err
	}
	c.token = token
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.ensureToken(); err != nil {
		return err
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+apiPrefix+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "GoogleLogin auth="+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &remote.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	if err := c.ensureToken(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+apiPrefix+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "GoogleLogin auth="+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &remote.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// ListFolders returns the user's folders. The remote service reports
// folders among its tags; anything that isn't a folder label is
// dropped here.
func (c *Client) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	var resp tagListResponse
	if err := c.get(ctx, "/tag/list", nil, &resp); err != nil {
		return nil, err
	}

	var folders []domain.Folder
	for _, tag := range resp.Tags {
		if !domain.IsFolderID(tag.ID) {
			continue
		}
		folders = append(folders, domain.Folder{ID: tag.ID, SortID: tag.SortID})
	}
	return folders, nil
}

// ListSubscriptions returns the user's subscriptions, with their folder
// memberships.
func (c *Client) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var resp subscriptionListResponse
	if err := c.get(ctx, "/subscription/list", nil, &resp); err != nil {
		return nil, err
	}

	subscriptions := make([]domain.Subscription, 0, len(resp.Subscriptions))
	for _, sub := range resp.Subscriptions {
		subscriptions = append(subscriptions, mapSubscription(sub))
	}
	return subscriptions, nil
}

// ListArticles returns one page of articles for the given options along
// with a continuation token for the next page.
func (c *Client) ListArticles(ctx context.Context, opts remote.ListOptions) ([]domain.Article, string, error) {
	query := url.Values{}
	stream := opts.StreamID
	if stream == "" {
		stream = remote.StreamReadingList
	}
	query.Set("s", stream)
	if !opts.Since.IsZero() {
		query.Set("ot", strconv.FormatInt(opts.Since.Unix(), 10))
	}
	if opts.ExcludeRead {
		query.Set("xt", remote.TagRead)
	}
	if opts.PageSize > 0 {
		query.Set("n", strconv.Itoa(opts.PageSize))
	}
	if opts.Continuation != "" {
		query.Set("c", opts.Continuation)
	}

	var resp streamContentsResponse
	if err := c.get(ctx, "/stream/contents", query, &resp); err != nil {
		return nil, "", err
	}

	articles := make([]domain.Article, 0, len(resp.Items))
	for _, item := range resp.Items {
		articles = append(articles, mapItem(item))
	}
	return articles, resp.Continuation, nil
}

// ListUnreadIDs returns the IDs of every article the remote service
// currently considers unread, following continuations until the
// listing is exhausted.
func (c *Client) ListUnreadIDs(ctx context.Context) ([]string, error) {
	var ids []string
	continuation := ""
	for {
		query := url.Values{
			"s":  {remote.StreamReadingList},
			"xt": {remote.TagRead},
			"n":  {"10000"},
		}
		if continuation != "" {
			query.Set("c", continuation)
		}

		var resp itemIDsResponse
		if err := c.get(ctx, "/stream/items/ids", query, &resp); err != nil {
			return nil, err
		}
		for _, ref := range resp.ItemRefs {
			ids = append(ids, longItemID(ref.ID))
		}

		if resp.Continuation == "" || len(resp.ItemRefs) == 0 {
			return ids, nil
		}
		continuation = resp.Continuation
	}
}

// AddTag attaches the given tag to the given articles.
func (c *Client) AddTag(ctx context.Context, articleIDs []string, tag string) error {
	return c.editTag(ctx, articleIDs, "a", tag)
}

// RemoveTag removes the given tag from the given articles.
func (c *Client) RemoveTag(ctx context.Context, articleIDs []string, tag string) error {
	return c.editTag(ctx, articleIDs, "r", tag)
}

func (c *Client) editTag(ctx context.Context, articleIDs []string, action, tag string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	form := url.Values{action: {tag}}
	for _, id := range articleIDs {
		form.Add("i", id)
	}
	return c.postForm(ctx, "/edit-tag", form)
}

// longItemID converts a short item reference, as returned by the item
// ID listing, into the long form used everywhere else in the API.
func longItemID(short string) string {
	if strings.HasPrefix(short, "tag:") {
		return short
	}
	if value, err := strconv.ParseUint(short, 10, 64); err == nil {
		return fmt.Sprintf("tag:google.com,2005:reader/item/%016x", value)
	}
	return fmt.Sprintf("tag:google.com,2005:reader/item/%s", short)
}
