package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// String renders p for terminal output.
func (p Post) String() string {
	var b strings.Builder
	author := "@" + p.Author
	if p.AuthorName != "" {
		author = p.AuthorName + " (" + author + ")"
	}
	b.WriteString(author)
	if p.CreatedAt != nil {
		fmt.Fprintf(&b, " · %s", p.CreatedAt.Format(time.DateTime))
	}
	b.WriteByte('\n')
	b.WriteString(p.Text)
	if stats := counts(
		"replies", p.Replies,
		"reposts", p.Reposts,
		"likes", p.Likes,
		"views", p.Views,
	); stats != "" {
		b.WriteString("\n" + stats)
	}
	if p.URL != "" {
		b.WriteString("\n" + p.URL)
	}
	return b.String()
}

// String renders p for terminal output. Posts are listed after the header.
func (p Profile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (@%s)", p.DisplayName, p.Username)
	if p.Verified {
		b.WriteString(" [verified]")
	}
	for _, line := range []string{p.Bio, p.Location, p.Website, p.JoinDate} {
		if line != "" {
			b.WriteString("\n" + line)
		}
	}
	if stats := counts("following", p.Following, "followers", p.Followers); stats != "" {
		b.WriteString("\n" + stats)
	}
	for _, post := range p.Posts {
		b.WriteString("\n\n" + post.String())
	}
	return b.String()
}

// counts formats name/value pairs, skipping nil values.
func counts(pairs ...any) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		n, _ := pairs[i+1].(*int64)
		if n == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(*n), pairs[i]))
	}
	return strings.Join(parts, " · ")
}
