package normalizer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sitesync/internal/config"
	"sitesync/internal/models"

	"github.com/google/go-cmp/cmp"
)

func newTestProcessor() *Processor {
	return NewProcessor(config.Default().Normalize, nil)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	return data
}

func TestNewProcessor(t *testing.T) {
	p := newTestProcessor()
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process_FlatList(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process([]byte(`[{"name":"Test","url":"http://x.com/a"}]`))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	data, err := json.Marshal(result.Catalog)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"sites":[{"key":"site_test","name":"Test","api":"http://x.com/a","active":true}]}`
	if string(data) != want {
		t.Errorf("catalog = %s, want %s", data, want)
	}
}

func TestProcessor_Process_LivesExample(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process([]byte(`{"lives":[{"list":[{"name":"A","api":"http://a.com"}]}]}`))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	want := []models.Site{{Key: "site_a", Name: "A", API: "http://a.com", Active: true}}
	if diff := cmp.Diff(want, result.Catalog.Sites); diff != "" {
		t.Errorf("sites mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessor_Process_SitesKey(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process([]byte(`{"sites":[{"name":"One","api":"https://one.com/api.php/provide/vod"},{"name":"Two","url":"https://two.com"}]}`))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if result.Accepted() != 2 {
		t.Fatalf("Accepted = %d, want 2", result.Accepted())
	}

	if result.Catalog.Sites[1].Key != "site_two" {
		t.Errorf("second key = %s, want site_two", result.Catalog.Sites[1].Key)
	}
}

func TestProcessor_Process_LunaTVSample(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process(readFixture(t, "lunatv_sample.json"))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	want := []models.Site{
		{Key: "site_电影天堂资源", Name: "🎬电影天堂资源", API: "http://caiji.dyttzyapi.com/api.php/provide/vod", Active: true},
		{Key: "site_如意资源", Name: "🎬如意资源", API: "https://cj.rycjapi.com/api.php/provide/vod", Active: true},
		{Key: "site_暴风资源", Name: "🎬暴风资源", API: "https://bfzyapi.com/api.php/provide/vod", Active: true},
		{Key: "site_天涯资源", Name: "🎬天涯资源", API: "https://tyyszy.com/api.php/provide/vod", Active: true},
	}
	if diff := cmp.Diff(want, result.Catalog.Sites); diff != "" {
		t.Errorf("sites mismatch (-want +got):\n%s", diff)
	}

	if result.Seen != 7 {
		t.Errorf("Seen = %d, want 7", result.Seen)
	}

	if result.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", result.Duplicates)
	}

	if len(result.Skipped) != 2 {
		t.Fatalf("Skipped = %d, want 2", len(result.Skipped))
	}

	if !errors.Is(result.Skipped[0], ErrMissingURL) || result.Skipped[0].Path != "api_site.broken" {
		t.Errorf("Skipped[0] = %v", result.Skipped[0])
	}

	if !errors.Is(result.Skipped[1], ErrInvalidURL) {
		t.Errorf("Skipped[1] = %v", result.Skipped[1])
	}

	reasons := result.SkipReasons()
	if reasons[ErrMissingURL.Error()] != 1 || reasons[ErrInvalidURL.Error()] != 1 {
		t.Errorf("SkipReasons = %v", reasons)
	}
}

func TestProcessor_Process_CleanNamesAndHashKeys(t *testing.T) {
	cfg := config.Default().Normalize
	cfg.CleanNames = true
	cfg.KeyStrategy = config.KeyStrategyHash
	p := NewProcessor(cfg, nil)

	result, err := p.Process(readFixture(t, "lunatv_sample.json"))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	first := result.Catalog.Sites[0]
	if first.Name != "电影天堂资源" {
		t.Errorf("Name = %q, want cleaned name", first.Name)
	}

	if first.Key != "site_"+HashToken(first.API, 8) {
		t.Errorf("Key = %s, want hash of api", first.Key)
	}
}

func TestProcessor_Process_NestedLives(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process(readFixture(t, "lives_nested.json"))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	want := []string{"site_cctv1", "site_cctv2", "site_湖南卫视", "site_电视直播"}
	if diff := cmp.Diff(want, result.Catalog.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if result.Seen != 6 || result.Duplicates != 1 || len(result.Skipped) != 1 {
		t.Errorf("Seen/Duplicates/Skipped = %d/%d/%d, want 6/1/1", result.Seen, result.Duplicates, len(result.Skipped))
	}
}

func TestProcessor_Process_DedupDisabled(t *testing.T) {
	cfg := config.Default().Normalize
	cfg.Dedup = false
	p := NewProcessor(cfg, nil)

	input := `[{"name":"A","api":"http://a.com"},{"name":"A","api":"http://a.com"}]`

	result, err := p.Process([]byte(input))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	want := []string{"site_a", "site_a_1"}
	if diff := cmp.Diff(want, result.Catalog.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessor_Process_UniqueKeysAndAPIs(t *testing.T) {
	p := newTestProcessor()

	input := `[
		{"name":"Site","api":"http://1.com"},
		{"name":"site","api":"http://2.com"},
		{"name":"SITE","api":"http://1.com"},
		{"name":"S-i-t-e","api":"http://3.com"},
		{"name":"Site_1","api":"http://4.com"}
	]`

	result, err := p.Process([]byte(input))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	keys := make(map[string]bool)
	apis := make(map[string]bool)

	for _, s := range result.Catalog.Sites {
		if keys[s.Key] {
			t.Errorf("duplicate key %s", s.Key)
		}

		if apis[s.API] {
			t.Errorf("duplicate api %s", s.API)
		}

		keys[s.Key] = true
		apis[s.API] = true

		if !s.Active {
			t.Errorf("site %s is not active", s.Key)
		}
	}

	want := []string{"site_site", "site_site_1", "site_site_2", "site_site_1_1"}
	if diff := cmp.Diff(want, result.Catalog.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessor_Process_Idempotent(t *testing.T) {
	input := readFixture(t, "lives_nested.json")

	first, err := newTestProcessor().Process(input)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	p := newTestProcessor()

	// Reusing one processor must not leak keys between runs.
	if _, err := p.Process(input); err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	second, err := p.Process(input)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	a, _ := json.MarshalIndent(first.Catalog, "", "  ")
	b, _ := json.MarshalIndent(second.Catalog, "", "  ")

	if string(a) != string(b) {
		t.Errorf("outputs differ:\n%s\n---\n%s", a, b)
	}
}

func TestProcessor_Process_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Empty body", ``, ErrInvalidJSON},
		{"HTML error page", `<html><body>502 Bad Gateway</body></html>`, ErrInvalidJSON},
		{"Truncated JSON", `{"sites":[{"name":"A"`, ErrInvalidJSON},
		{"Scalar", `true`, ErrUnexpectedShape},
		{"No list", `{"version":"1.0"}`, ErrNoRecordList},
	}

	p := newTestProcessor()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Process([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Process error = %v, want %v", err, tt.wantErr)
			}

			if result != nil {
				t.Error("Process expected nil result on error")
			}
		})
	}
}

func TestProcessor_Process_AllRecordsInvalid(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process([]byte(`[{"name":"X"},{"api":"http://a.com"},{"name":"Y","api":"ftp://y.com"}]`))
	if err != nil {
		t.Fatalf("record errors must not abort the run: %v", err)
	}

	if result.Accepted() != 0 || len(result.Skipped) != 3 {
		t.Errorf("Accepted/Skipped = %d/%d, want 0/3", result.Accepted(), len(result.Skipped))
	}

	data, _ := json.Marshal(result.Catalog)
	if string(data) != `{"sites":[]}` {
		t.Errorf("empty catalog = %s", data)
	}
}

func TestProcessor_Process_DictWithMalformedEntry(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"null entry", `{"cache_time":7200,"api_site":{"a":{"name":"A","api":"http://a.com"},"b":null}}`},
		{"string entry", `{"cache_time":7200,"api_site":{"a":{"name":"A","api":"http://a.com"},"b":"oops"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestProcessor().Process([]byte(tt.input))
			if err != nil {
				t.Fatalf("a bad entry must not abort the run: %v", err)
			}

			want := []models.Site{{Key: "site_a", Name: "A", API: "http://a.com", Active: true}}
			if diff := cmp.Diff(want, result.Catalog.Sites); diff != "" {
				t.Errorf("sites mismatch (-want +got):\n%s", diff)
			}

			if len(result.Skipped) != 1 {
				t.Fatalf("Skipped = %d, want 1", len(result.Skipped))
			}

			if !errors.Is(result.Skipped[0], ErrNotAnObject) || result.Skipped[0].Path != "api_site.b" {
				t.Errorf("Skipped[0] = %v at %s", result.Skipped[0], result.Skipped[0].Path)
			}
		})
	}
}

func TestProcessor_Process_EmptyPriorityContainer(t *testing.T) {
	result, err := newTestProcessor().Process([]byte(`{"lives":[],"other":[{"name":"A","api":"http://a.com"}]}`))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if keys := result.Catalog.Keys(); len(keys) != 1 || keys[0] != "site_a" {
		t.Errorf("keys = %v, want [site_a]", keys)
	}
}

func TestProcessor_Process_Envelope(t *testing.T) {
	result, err := newTestProcessor().Process([]byte(`{"code":0,"data":{"list":[{"name":"A","api":"http://a.com"}]}}`))
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if result.Accepted() != 1 {
		t.Errorf("Accepted = %d, want 1", result.Accepted())
	}
}
