package awesome

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/epiclist/internal/ranges"
)

// LinkType is the inferred category of a catalog entry.
type LinkType uint8

const (
	LinkOther LinkType = iota
	LinkRepo
	LinkArticle
	LinkVideo
	LinkPodcast
	LinkBook
	LinkCourse
)

var linkTypeNames = [...]string{
	LinkOther:   "Other",
	LinkRepo:    "Repo",
	LinkArticle: "Article",
	LinkVideo:   "Video",
	LinkPodcast: "Podcast",
	LinkBook:    "Book",
	LinkCourse:  "Course",
}

// LinkTypes lists every category in declaration order.
func LinkTypes() []LinkType {
	return []LinkType{LinkRepo, LinkArticle, LinkVideo, LinkPodcast, LinkBook, LinkCourse, LinkOther}
}

func (t LinkType) String() string {
	if int(t) < len(linkTypeNames) {
		return linkTypeNames[t]
	}
	return fmt.Sprintf("LinkType(%d)", uint8(t))
}

func (t LinkType) MarshalText() ([]byte, error) {
	if int(t) >= len(linkTypeNames) {
		return nil, fmt.Errorf("unknown link type %d", uint8(t))
	}
	return []byte(linkTypeNames[t]), nil
}

func (t *LinkType) UnmarshalText(b []byte) error {
	for i, name := range linkTypeNames {
		if name == string(b) {
			*t = LinkType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown link type %q", b)
}

// AwesomeLink is one catalog entry: the leading link of a bullet together
// with the text around it and the headings it sits under.
type AwesomeLink struct {
	URL         *url.URL
	Title       string
	Breadcrumbs []string // outermost heading first
	Description string   // empty when the bullet has no usable text
	LinkType    LinkType
	SourceLines ranges.Range // 1-based, end exclusive
}

type linkJSON struct {
	URL         string       `json:"url"`
	Title       string       `json:"title"`
	Breadcrumbs []string     `json:"breadcrumbs"`
	Description string       `json:"description,omitempty"`
	LinkType    LinkType     `json:"link_type"`
	SourceLines ranges.Range `json:"source_lines"`
}

func (l AwesomeLink) MarshalJSON() ([]byte, error) {
	out := linkJSON{
		Title:       l.Title,
		Breadcrumbs: l.Breadcrumbs,
		Description: l.Description,
		LinkType:    l.LinkType,
		SourceLines: l.SourceLines,
	}
	if l.URL != nil {
		out.URL = l.URL.String()
	}
	if out.Breadcrumbs == nil {
		out.Breadcrumbs = []string{}
	}
	return json.Marshal(out)
}

func (l *AwesomeLink) UnmarshalJSON(b []byte) error {
	var in linkJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	u, err := parseURL(in.URL)
	if err != nil {
		return fmt.Errorf("link url: %w", err)
	}
	*l = AwesomeLink{
		URL:         u,
		Title:       in.Title,
		Breadcrumbs: in.Breadcrumbs,
		Description: in.Description,
		LinkType:    in.LinkType,
		SourceLines: in.SourceLines,
	}
	return nil
}

// parseURL parses raw and lowercases its host. The scheme is already
// lowercased by url.Parse.
func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	u.Host = strings.ToLower(u.Host)
	return u, nil
}

// RepositoryCoordinates returns the owner and name of a GitHub repository
// entry. Entries on other hosts, or not categorized as repositories,
// report ok == false.
func (l AwesomeLink) RepositoryCoordinates() (owner, name string, ok bool) {
	if l.URL == nil || !strings.EqualFold(l.URL.Hostname(), "github.com") || l.LinkType != LinkRepo {
		return "", "", false
	}
	var segs []string
	for _, s := range strings.Split(l.URL.Path, "/") {
		if s != "" {
			segs = append(segs, s)
			if len(segs) == 2 {
				return segs[0], segs[1], true
			}
		}
	}
	return "", "", false
}

// FollowableRepositories returns the "owner/name" coordinates of every
// repository entry, first occurrence order, without duplicates.
func FollowableRepositories(entries []AwesomeLink) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		owner, name, ok := e.RepositoryCoordinates()
		if !ok {
			continue
		}
		key := owner + "/" + name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
