package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/archiveview/relation"
)

// Content is one block of a post body: either text or a file reference.
type Content struct {
	Text string
	File *int64
}

// IsFile reports whether the block references a file.
func (c Content) IsFile() bool {
	return c.File != nil
}

// MarshalJSON encodes text as a string and files as their id.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.File != nil {
		return json.Marshal(*c.File)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts a string or an integer file id.
func (c *Content) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*c = Content{File: &id}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("content must be a string or a file id: %w", err)
	}
	*c = Content{Text: text}
	return nil
}

// Comment is a comment thread entry.
type Comment struct {
	User    string    `json:"user"`
	Text    string    `json:"text"`
	Replies []Comment `json:"replies,omitempty"`
}

// PostRecord is a post as the API returns it. Tags, authors and collections
// are inlined as relation arrays beside it.
type PostRecord struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   []Content `json:"content"`
	Source    *string   `json:"source,omitempty"`
	Updated   time.Time `json:"updated"`
	Published time.Time `json:"published"`
	Thumb     *int64    `json:"thumb,omitempty"`
	Platform  *int64    `json:"platform,omitempty"`
	Comments  []Comment `json:"comments,omitempty"`
}

// Post is a post with its relations resolved.
type Post struct {
	PostRecord
	Tags        []relation.Tag
	Authors     []relation.Author
	Collections []relation.Collection
	Relations   *relation.Map
}

// ThumbURL returns the thumbnail URL, or "" without a thumbnail.
func (p *Post) ThumbURL() string {
	if f := p.Relations.File(p.Thumb); f != nil {
		return f.URL
	}
	return ""
}

// PlatformName returns the name of the post's platform, or "".
func (p *Post) PlatformName() string {
	if p.Platform == nil {
		return ""
	}
	if pl, ok := p.Relations.Platform(*p.Platform); ok {
		return pl.Name
	}
	return ""
}

// Files returns the resolved files referenced by the body, in order.
// References missing from the relations are skipped.
func (p *Post) Files() []relation.File {
	var files []relation.File
	for _, c := range p.Content {
		if f := p.Relations.File(c.File); f != nil {
			files = append(files, *f)
		}
	}
	return files
}

// PostPreview is one row of a post listing.
type PostPreview struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Updated time.Time `json:"updated"`
	Thumb   *int64    `json:"thumb,omitempty"`
}

// PostList is one page of a post listing.
type PostList struct {
	Items     []PostPreview
	Total     int
	Relations *relation.Map
}

// ThumbURL returns the thumbnail URL of a listed post, or "".
func (l *PostList) ThumbURL(p PostPreview) string {
	if f := l.Relations.File(p.Thumb); f != nil {
		return f.URL
	}
	return ""
}

// Summary reports archive-wide counts.
type Summary struct {
	Version             string `json:"version"`
	PostArchiverVersion string `json:"postArchiverVersion"`
	Tags                int    `json:"tags"`
	Authors             int    `json:"authors"`
	Collections         int    `json:"collections"`
	Platforms           int    `json:"platforms"`
}
