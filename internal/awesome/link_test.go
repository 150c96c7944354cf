package awesome

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/epiclist/internal/ranges"
)

func entry(t *testing.T, raw string, lt LinkType) AwesomeLink {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return AwesomeLink{URL: u, Title: "t", LinkType: lt}
}

func TestRepositoryCoordinates(t *testing.T) {
	tests := []struct {
		url         string
		lt          LinkType
		owner, name string
		ok          bool
	}{
		{"https://github.com/o/r", LinkRepo, "o", "r", true},
		{"https://github.com/o/r/tree/main/docs", LinkRepo, "o", "r", true},
		{"https://github.com//o//r", LinkRepo, "o", "r", true},
		{"https://github.com/o", LinkRepo, "", "", false},
		{"https://github.com/o/r", LinkOther, "", "", false},
		{"https://gitlab.com/o/r", LinkRepo, "", "", false},
	}
	for _, tt := range tests {
		owner, name, ok := entry(t, tt.url, tt.lt).RepositoryCoordinates()
		if owner != tt.owner || name != tt.name || ok != tt.ok {
			t.Errorf("%s (%s): expected (%q, %q, %v), got (%q, %q, %v)",
				tt.url, tt.lt, tt.owner, tt.name, tt.ok, owner, name, ok)
		}
	}
}

func TestFollowableRepositories(t *testing.T) {
	entries := []AwesomeLink{
		entry(t, "https://github.com/a/one", LinkRepo),
		entry(t, "https://example.com/x", LinkOther),
		entry(t, "https://github.com/b/two", LinkRepo),
		entry(t, "https://github.com/a/one/issues", LinkRepo),
	}
	got := FollowableRepositories(entries)
	if want := []string{"a/one", "b/two"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAwesomeLink_JSON(t *testing.T) {
	e := entry(t, "https://github.com/o/r", LinkRepo)
	e.Title = "Foo"
	e.Breadcrumbs = []string{"Awesome X"}
	e.SourceLines = ranges.Range{Start: 3, End: 4}

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		`"url":"https://github.com/o/r"`,
		`"link_type":"Repo"`,
		`"source_lines":{"start":3,"end":4}`,
		`"breadcrumbs":["Awesome X"]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
	if strings.Contains(s, "description") {
		t.Errorf("expected empty description to be omitted, got %s", s)
	}

	var back AwesomeLink
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.URL.String() != e.URL.String() || back.LinkType != LinkRepo || back.SourceLines != e.SourceLines {
		t.Errorf("expected %+v, got %+v", e, back)
	}
}

func TestLinkType_UnmarshalUnknown(t *testing.T) {
	var lt LinkType
	if err := lt.UnmarshalText([]byte("Gadget")); err == nil {
		t.Error("expected error for unknown link type")
	}
	if err := lt.UnmarshalText([]byte("Podcast")); err != nil || lt != LinkPodcast {
		t.Errorf("expected Podcast, got %s (%v)", lt, err)
	}
}
