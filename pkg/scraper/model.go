package scraper

import "time"

// Post is a single scraped post.
// Counts are nil when the counter was not found on the page.
type Post struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	URL        string     `json:"url,omitempty" yaml:"url,omitempty"`
	Author     string     `json:"author,omitempty" yaml:"author,omitempty"`
	AuthorName string     `json:"author_name,omitempty" yaml:"author_name,omitempty"`
	Text       string     `json:"text" yaml:"text"`
	CreatedAt  *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Replies    *int64     `json:"replies,omitempty" yaml:"replies,omitempty"`
	Reposts    *int64     `json:"reposts,omitempty" yaml:"reposts,omitempty"`
	Likes      *int64     `json:"likes,omitempty" yaml:"likes,omitempty"`
	Views      *int64     `json:"views,omitempty" yaml:"views,omitempty"`
	Hashtags   []string   `json:"hashtags,omitempty" yaml:"hashtags,omitempty"`
	Mentions   []string   `json:"mentions,omitempty" yaml:"mentions,omitempty"`
	ScrapedAt  time.Time  `json:"scraped_at" yaml:"scraped_at"`
}

// Profile is a scraped user profile.
type Profile struct {
	Username    string    `json:"username" yaml:"username"`
	URL         string    `json:"url" yaml:"url"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Bio         string    `json:"bio,omitempty" yaml:"bio,omitempty"`
	Location    string    `json:"location,omitempty" yaml:"location,omitempty"`
	Website     string    `json:"website,omitempty" yaml:"website,omitempty"`
	JoinDate    string    `json:"join_date,omitempty" yaml:"join_date,omitempty"`
	Verified    bool      `json:"verified" yaml:"verified"`
	Following   *int64    `json:"following,omitempty" yaml:"following,omitempty"`
	Followers   *int64    `json:"followers,omitempty" yaml:"followers,omitempty"`
	Posts       []Post    `json:"posts,omitempty" yaml:"posts,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at" yaml:"scraped_at"`
}
