package scraper

import "github.com/jmylchreest/xscrape/pkg/extract"

// PostSelectors locate post fields. Field queries run inside one post container.
type PostSelectors struct {
	Container  extract.Query
	Text       extract.Query
	AuthorLink extract.Query
	AuthorName extract.Query
	Time       extract.Query
	StatusLink extract.Query
	Replies    extract.Query
	Reposts    extract.Query
	Likes      extract.Query
	Views      extract.Query
	Promoted   extract.Query
}

// ProfileSelectors locate profile header fields.
type ProfileSelectors struct {
	Ready       extract.Query
	DisplayName extract.Query
	Bio         extract.Query
	Location    extract.Query
	Website     extract.Query
	JoinDate    extract.Query
	Verified    extract.Query
	Following   extract.Query
	Followers   extract.Query
}

// DefaultPostSelectors returns the post locators for x.com.
func DefaultPostSelectors() PostSelectors {
	return PostSelectors{
		Container: extract.CSS("post",
			"article[data-testid='tweet']",
			"div[data-testid='tweet']",
			"article[role='article']",
		),
		Text: extract.CSS("post text",
			"[data-testid='tweetText']",
			"div[lang]",
		),
		AuthorLink: extract.CSS("author link",
			"[data-testid='User-Name'] a[role='link']",
			"[data-testid='User-Name'] a",
		),
		AuthorName: extract.CSS("author name",
			"[data-testid='User-Name'] a span span",
			"[data-testid='User-Name'] span",
		),
		Time: extract.CSS("timestamp", "time[datetime]"),
		StatusLink: extract.CSS("status link",
			"a[href*='/status/']:has(time)",
			"a[href*='/status/']",
		),
		Replies: extract.CSS("reply count",
			"[data-testid='reply'] [data-testid='app-text-transition-container']",
			"[data-testid='reply'] span",
			"[aria-label*='Repl'] span",
		),
		Reposts: extract.CSS("repost count",
			"[data-testid='retweet'] [data-testid='app-text-transition-container']",
			"[data-testid='retweet'] span",
			"[data-testid='unretweet'] span",
			"[aria-label*='Repost'] span",
		),
		Likes: extract.CSS("like count",
			"[data-testid='like'] [data-testid='app-text-transition-container']",
			"[data-testid='like'] span",
			"[data-testid='unlike'] span",
			"[aria-label*='Like'] span",
		),
		Views: extract.CSS("view count",
			"a[href$='/analytics'] [data-testid='app-text-transition-container']",
			"a[href$='/analytics'] span",
		),
		Promoted: extract.CSS("promoted marker",
			"[data-testid='placementTracking']",
			"[data-testid='promotedIndicator']",
		),
	}
}

// DefaultProfileSelectors returns the profile locators for x.com.
func DefaultProfileSelectors() ProfileSelectors {
	return ProfileSelectors{
		Ready: extract.CSS("profile header",
			"[data-testid='UserName']",
			"[data-testid='primaryColumn'] h2[role='heading']",
		),
		DisplayName: extract.CSS("display name",
			"[data-testid='UserName'] span span",
			"[data-testid='UserName'] span",
			"h1[role='heading'] span span",
		),
		Bio: extract.CSS("bio",
			"[data-testid='UserDescription']",
			"[data-testid='UserDescription'] span",
		),
		Location: extract.CSS("location",
			"[data-testid='UserLocation'] span",
			"[data-testid='UserLocation']",
		),
		Website: extract.CSS("website",
			"[data-testid='UserUrl'] a",
			"a[data-testid='UserUrl']",
		),
		JoinDate: extract.CSS("join date",
			"[data-testid='UserJoinDate'] span",
			"[data-testid='UserJoinDate']",
		),
		Verified: extract.CSS("verified badge",
			"[data-testid='UserName'] [data-testid='icon-verified']",
			"[data-testid='UserName'] svg[aria-label*='Verified']",
		),
		Following: extract.CSS("following count",
			"a[href$='/following'] span span",
			"a[href*='/following'] span",
		),
		Followers: extract.CSS("follower count",
			"a[href$='/verified_followers'] span span",
			"a[href$='/followers'] span span",
			"a[href*='/followers'] span",
		),
	}
}
