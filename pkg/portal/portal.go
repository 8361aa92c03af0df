// Package portal contains the core domain types for the Featurebase portal
// scraper: the raw records as the portal API delivers them and the stable
// formatted records written to the output trees.
package portal

import "encoding/json"

// Envelope is one page of an API collection response.
type Envelope[T any] struct {
	Results      []T `json:"results"`
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// Summary is the light list-view record returned by a page query. Only the
// ID matters; it exists to drive a detail fetch.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// RawUser is the user sub-object as delivered by the API.
type RawUser struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Type    string `json:"type"`
}

// RawStatus is the postStatus sub-object as delivered by the API.
type RawStatus struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RawCategory is the postCategory sub-object as delivered by the API. The
// display name lives in the "category" field upstream.
type RawCategory struct {
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

// RawComment is a comment as delivered by the comment endpoint, with nested
// replies already attached by the server. Ordering is server-delivered
// (sortBy=best) and is never re-sorted here. Fields without a declared
// counterpart are carried in Extra so snapshots stay byte-faithful to the
// server's objects.
type RawComment struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	User      *RawUser     `json:"user"`
	CreatedAt string       `json:"createdAt,omitempty"`
	Date      string       `json:"date,omitempty"`
	Upvotes   int          `json:"upvotes"`
	Replies   []RawComment `json:"replies,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var rawCommentKnown = map[string]bool{
	"id": true, "content": true, "user": true, "createdAt": true,
	"date": true, "upvotes": true, "replies": true,
}

func (c *RawComment) UnmarshalJSON(data []byte) error {
	type alias RawComment
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, rawCommentKnown)
	if err != nil {
		return err
	}
	*c = RawComment(a)
	c.Extra = extra
	return nil
}

func (c RawComment) MarshalJSON() ([]byte, error) {
	type alias RawComment
	base, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, c.Extra)
}

// RawPost is a fully expanded post or roadmap item as delivered by the
// detail endpoint. Comments are attached by the pipeline after a separate
// comment fetch. Fields without a declared counterpart are carried in Extra
// so snapshots stay byte-faithful to the server's objects.
type RawPost struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	User         *RawUser        `json:"user"`
	Date         string          `json:"date"`
	LastModified string          `json:"lastModified"`
	PostStatus   *RawStatus      `json:"postStatus"`
	PostCategory *RawCategory    `json:"postCategory"`
	Upvotes      int             `json:"upvotes"`
	CommentCount int             `json:"commentCount"`
	PostTags     json.RawMessage `json:"postTags,omitempty"`
	Pinned       bool            `json:"pinned"`
	Comments     []RawComment    `json:"comments"`

	Extra map[string]json.RawMessage `json:"-"`
}

var rawPostKnown = map[string]bool{
	"id": true, "slug": true, "title": true, "content": true, "user": true,
	"date": true, "lastModified": true, "postStatus": true,
	"postCategory": true, "upvotes": true, "commentCount": true,
	"postTags": true, "pinned": true, "comments": true,
}

func (p *RawPost) UnmarshalJSON(data []byte) error {
	type alias RawPost
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, rawPostKnown)
	if err != nil {
		return err
	}
	*p = RawPost(a)
	p.Extra = extra
	return nil
}

func (p RawPost) MarshalJSON() ([]byte, error) {
	type alias RawPost
	base, err := json.Marshal(alias(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, p.Extra)
}

// extraFields collects the keys of data not claimed by a declared field.
func extraFields(data []byte, known map[string]bool) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key := range all {
		if known[key] {
			delete(all, key)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// mergeExtra re-attaches undeclared fields to an encoded record. Declared
// fields win on a key collision.
func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	merged := make(map[string]json.RawMessage, len(extra))
	for key, value := range extra {
		merged[key] = value
	}
	var declared map[string]json.RawMessage
	if err := json.Unmarshal(base, &declared); err != nil {
		return nil, err
	}
	for key, value := range declared {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Author is the formatted author/submitter shape.
type Author struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Type    string `json:"type"`
}

// Status is the formatted status shape.
type Status struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Category is the formatted category shape. Name keeps the original display
// name; sanitization happens only when a name is turned into a filename.
type Category struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Comment is a formatted comment tree node.
type Comment struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	ContentText string    `json:"contentText"`
	Author      *Author   `json:"author"`
	Date        string    `json:"date"`
	Upvotes     int       `json:"upvotes"`
	Replies     []Comment `json:"replies"`
}

// Post is the stable output record for one feedback post or roadmap item.
type Post struct {
	ID             string          `json:"id"`
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	ContentText    string          `json:"contentText"`
	Submitter      *Author         `json:"submitter"`
	Date           string          `json:"date"`
	LastModified   string          `json:"lastModified"`
	Status         *Status         `json:"status"`
	RoadmapSection string          `json:"roadmapSection,omitempty"`
	Category       *Category       `json:"category"`
	Upvotes        int             `json:"upvotes"`
	CommentCount   int             `json:"commentCount"`
	Comments       []Comment       `json:"comments"`
	Tags           json.RawMessage `json:"tags"`
	Images         []string        `json:"images"`
	Pinned         bool            `json:"pinned"`
}

// Section is one named partition of the roadmap, discovered from the
// organization metadata. ID is the opaque filter token used as the `s=`
// query parameter when fetching the section's submissions.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// RoadmapItem is one entry of a roadmap definition in the organization
// metadata. Filter is an opaque query-string fragment like
// "s=67b48e46dc9ba389ef409bd0&sortBy=date%3Adesc&inReview=false".
type RoadmapItem struct {
	Title  string `json:"title"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	Filter string `json:"filter"`
}

// Roadmap is a roadmap definition in the organization metadata.
type Roadmap struct {
	Name  string        `json:"name"`
	Items []RoadmapItem `json:"items"`
}

// Organization is the subset of the organization metadata this scraper
// keeps. Fields without a dedicated type are carried through untouched.
type Organization struct {
	Name               string          `json:"name"`
	DisplayName        string          `json:"displayName"`
	Color              string          `json:"color"`
	Picture            string          `json:"picture"`
	CustomDomain       string          `json:"customDomain"`
	SubscriptionStatus string          `json:"subscriptionStatus"`
	Plan               string          `json:"plan"`
	Language           string          `json:"language"`
	Categories         json.RawMessage `json:"categories,omitempty"`
	PostCategories     json.RawMessage `json:"postCategories,omitempty"`
	PostTags           json.RawMessage `json:"postTags,omitempty"`
	PostStatuses       json.RawMessage `json:"postStatuses,omitempty"`
	Roadmaps           []Roadmap       `json:"roadmaps"`
	ChangelogTags      json.RawMessage `json:"changelogTags,omitempty"`
	ChangelogCats      json.RawMessage `json:"changelogCategories,omitempty"`
	RoadmapStatuses    json.RawMessage `json:"roadmapStatuses,omitempty"`
	CreatedAt          string          `json:"createdAt"`
	UpdatedAt          string          `json:"updatedAt"`
	Widget             json.RawMessage `json:"widget,omitempty"`
	Settings           json.RawMessage `json:"settings,omitempty"`
}

// WalkComments runs fn over every node of the comment forest, parents
// before their replies. Counting and formatting share this traversal.
func WalkComments(comments []RawComment, fn func(c *RawComment)) {
	for i := range comments {
		fn(&comments[i])
		WalkComments(comments[i].Replies, fn)
	}
}

// CountComments reports the total number of nodes in the comment forest,
// nested replies included. Diagnostic only; the API's commentCount is not
// guaranteed to match.
func CountComments(comments []RawComment) int {
	n := 0
	WalkComments(comments, func(*RawComment) { n++ })
	return n
}
