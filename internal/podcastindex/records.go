package podcastindex

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/cloo-solutions/podquery/internal/domain"
)

// parseFeeds maps the payload's feeds into records, skipping items that
// are not objects.
func parseFeeds(doc gjson.Result) []domain.SearchRecord {
	records := []domain.SearchRecord{}
	feeds := doc.Get("feeds")
	if !feeds.IsArray() {
		return records
	}
	feeds.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			records = append(records, recordFromFeed(item))
		}
		return true
	})
	return records
}

// recordFromFeed reads one feed with a default for every field.
func recordFromFeed(feed gjson.Result) domain.SearchRecord {
	return domain.SearchRecord{
		ID:           feed.Get("id").Int(),
		Title:        textOr(feed.Get("title"), domain.UnknownTitle),
		Author:       textOr(feed.Get("author"), domain.UnknownAuthor),
		Description:  truncate(plainText(textOr(feed.Get("description"), "")), domain.MaxDescriptionLength),
		EpisodeCount: int(feed.Get("episodeCount").Int()),
		Artwork:      firstNonEmpty(textOr(feed.Get("artwork"), ""), textOr(feed.Get("image"), "")),
		URL:          textOr(feed.Get("url"), ""),
		Language:     textOr(feed.Get("language"), ""),
	}
}

// resultTotal returns count when it is numeric, else the record count.
func resultTotal(doc gjson.Result, records int) int {
	if count := doc.Get("count"); count.Type == gjson.Number {
		return int(count.Int())
	}
	return records
}

func textOr(v gjson.Result, fallback string) string {
	if v.Type != gjson.String {
		return fallback
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return fallback
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// plainText flattens HTML markup and entities into collapsed text.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// truncate keeps at most n characters.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
