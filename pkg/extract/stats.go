package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"igfeed/pkg/counts"
)

// Stats are the three header counters of a profile
type Stats struct {
	Posts     int64
	Followers int64
	Following int64
}

// Found reports whether any counter was read
func (s Stats) Found() bool {
	return s.Posts != 0 || s.Followers != 0 || s.Following != 0
}

// StatsStrategies read the header counters
var StatsStrategies = []Strategy[Stats]{
	{Name: "stat-list", Fn: StatsFromList},
	{Name: "labelled-text", Fn: StatsFromText},
	{Name: "flex-container", Fn: StatsFromFlex},
}

// childValue prefers a title attribute (exact count) over visible text
// (often abbreviated).
func childValue(item *goquery.Selection) int64 {
	if title := item.AttrOr("title", ""); title != "" {
		return counts.Parse(title)
	}
	if title := item.Find("[title]").First().AttrOr("title", ""); title != "" {
		if n := counts.Parse(counts.Token(title)); n != 0 {
			return n
		}
	}
	return counts.Parse(counts.Token(text(item)))
}

func statsFromContainers(containers *goquery.Selection) Stats {
	var stats Stats
	containers.EachWithBreak(func(_ int, c *goquery.Selection) bool {
		items := c.Children()
		if items.Length() < 3 {
			return true
		}
		stats = Stats{
			Posts:     childValue(items.Eq(0)),
			Followers: childValue(items.Eq(1)),
			Following: childValue(items.Eq(2)),
		}
		return !stats.Found()
	})
	return stats
}

// StatsFromList reads the first ul with at least three items as
// posts, followers, following.
func StatsFromList(p *Page) Stats {
	return statsFromContainers(p.Doc.Find("ul"))
}

var (
	postsLabel     = regexp.MustCompile(`(\d[\d,.]*(?:\s?[KMBkmb])?)\s*(?i:posts?)\b`)
	followersLabel = regexp.MustCompile(`(\d[\d,.]*(?:\s?[KMBkmb])?)\s*(?i:followers?)\b`)
	followingLabel = regexp.MustCompile(`(\d[\d,.]*(?:\s?[KMBkmb])?)\s*(?i:following)\b`)
)

// StatsFromText scans text-bearing elements for "N posts", "N followers"
// and "N following". The first element matching each label wins.
func StatsFromText(p *Page) Stats {
	var stats Stats
	read := func(dst *int64, re *regexp.Regexp, t string) {
		if *dst != 0 {
			return
		}
		if m := re.FindStringSubmatch(t); m != nil {
			*dst = counts.Parse(m[1])
		}
	}
	p.Doc.Find("span, div, li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := text(s)
		read(&stats.Posts, postsLabel, t)
		read(&stats.Followers, followersLabel, t)
		read(&stats.Following, followingLabel, t)
		return stats.Posts == 0 || stats.Followers == 0 || stats.Following == 0
	})
	return stats
}

// StatsFromFlex treats flex or grid containers with three or more children
// like a stat list.
func StatsFromFlex(p *Page) Stats {
	containers := p.Doc.Find("div").FilterFunction(func(_ int, div *goquery.Selection) bool {
		d := Display(div)
		return d == "flex" || d == "grid"
	})
	return statsFromContainers(containers)
}
