package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebdav "golang.org/x/net/webdav"

	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/match"
	"github.com/3leaps/davgallery/pkg/output"
)

const fixtureBase = "/remote.php/dav/files/alice"

// davFixture starts an in-memory WebDAV server and returns a config file
// pointing at it.
//
//	/Photos/a.jpg            (4 bytes)
//	/Photos/big.jpg          (2048 bytes)
//	/Photos/c.png
//	/Photos/.hidden.jpg
//	/Photos/2020/b.jpg
//	/Photos/.thumbs/
func davFixture(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	fs := xwebdav.NewMemFS()
	for _, dir := range []string{"/Photos", "/Photos/2020", "/Photos/.thumbs"} {
		require.NoError(t, fs.Mkdir(ctx, dir, 0o755))
	}
	files := map[string]int{
		"/Photos/a.jpg":       4,
		"/Photos/big.jpg":     2048,
		"/Photos/c.png":       4,
		"/Photos/.hidden.jpg": 4,
		"/Photos/2020/b.jpg":  4,
	}
	for name, size := range files {
		f, err := fs.OpenFile(ctx, name, os.O_CREATE|os.O_RDWR, 0o644)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Repeat("x", size)))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	srv := httptest.NewServer(&xwebdav.Handler{
		Prefix:     fixtureBase,
		FileSystem: fs,
		LockSystem: xwebdav.NewMemLS(),
	})
	t.Cleanup(srv.Close)

	return writeConfig(t, "webdav:\n  endpoint: "+srv.URL+"\n  remote_path: "+fixtureBase+"\n")
}

type jsonlRecord struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func parseJSONL(t *testing.T, out string) []jsonlRecord {
	t.Helper()
	var recs []jsonlRecord
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		var r jsonlRecord
		require.NoError(t, json.Unmarshal(s.Bytes(), &r), s.Text())
		recs = append(recs, r)
	}
	return recs
}

func entryFilenames(t *testing.T, recs []jsonlRecord, recType string) []string {
	t.Helper()
	var names []string
	for _, r := range recs {
		if r.Type != recType {
			continue
		}
		var e gallery.Entry
		require.NoError(t, json.Unmarshal(r.Data, &e))
		names = append(names, e.Filename)
	}
	return names
}

func TestLs_JSONL(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--config", cfg)
	require.NoError(t, err)

	recs := parseJSONL(t, out)
	require.NotEmpty(t, recs)
	assert.Equal(t, output.TypeFolder, recs[0].Type)
	assert.Equal(t, output.TypeSummary, recs[len(recs)-1].Type)

	assert.Equal(t, []string{"/Photos"}, entryFilenames(t, recs, output.TypeFolder))
	assert.ElementsMatch(t,
		[]string{"/Photos/2020", "/Photos/a.jpg", "/Photos/big.jpg"},
		entryFilenames(t, recs, output.TypeEntry),
		"png filtered by the default MIME policy, hidden entries dropped")

	var sum output.SummaryRecord
	require.NoError(t, json.Unmarshal(recs[len(recs)-1].Data, &sum))
	assert.Equal(t, int64(1), sum.Folders)
	assert.Equal(t, int64(2), sum.Files)
	assert.Equal(t, int64(2052), sum.BytesTotal)
	assert.Equal(t, []string{"/Photos"}, sum.Paths)
}

func TestLs_Deep(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--deep", "--config", cfg)
	require.NoError(t, err)

	names := entryFilenames(t, parseJSONL(t, out), output.TypeEntry)
	assert.Contains(t, names, "/Photos/2020/b.jpg")
}

func TestLs_IncludeExclude(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--deep", "--config", cfg,
		"--include", "Photos/2020/**", "--include", "big.jpg")
	require.NoError(t, err)
	names := entryFilenames(t, parseJSONL(t, out), output.TypeEntry)
	assert.Contains(t, names, "/Photos/2020/b.jpg")
	assert.Contains(t, names, "/Photos/big.jpg")
	assert.NotContains(t, names, "/Photos/a.jpg")

	out, err = executeCommand(t, "", "ls", "/Photos", "--config", cfg, "--exclude", "a.*")
	require.NoError(t, err)
	names = entryFilenames(t, parseJSONL(t, out), output.TypeEntry)
	assert.NotContains(t, names, "/Photos/a.jpg")
	assert.Contains(t, names, "/Photos/big.jpg")
}

func TestLs_IncludeHidden(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--config", cfg, "--include-hidden")
	require.NoError(t, err)
	names := entryFilenames(t, parseJSONL(t, out), output.TypeEntry)
	assert.Contains(t, names, "/Photos/.hidden.jpg")
	assert.Contains(t, names, "/Photos/.thumbs")
}

func TestLs_MinSize(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--config", cfg, "--min-size", "1KiB")
	require.NoError(t, err)
	names := entryFilenames(t, parseJSONL(t, out), output.TypeEntry)
	assert.Contains(t, names, "/Photos/big.jpg")
	assert.NotContains(t, names, "/Photos/a.jpg")
}

func TestLs_GalleryMimesFromConfig(t *testing.T) {
	cfg := davFixture(t)
	body, err := os.ReadFile(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg, append(body, []byte("gallery:\n  mimes: [image/jpeg, image/png]\n")...), 0o600))

	out, err := executeCommand(t, "", "ls", "/Photos", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, entryFilenames(t, parseJSONL(t, out), output.TypeEntry), "/Photos/c.png")
}

func TestLs_TableFormat(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--config", cfg, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "FILENAME")
	assert.Contains(t, out, "/Photos/a.jpg")
	assert.Contains(t, out, "2.0 KiB")
}

func TestLs_NotFound(t *testing.T) {
	cfg := davFixture(t)

	_, err := executeCommand(t, "", "ls", "/Missing", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, foundry.ExitFileNotFound, ExitCode(err))
}

func TestLs_InvalidArguments(t *testing.T) {
	cfg := davFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"--format", "xml"}},
		{"bad pattern", []string{"--include", "[unclosed"}},
		{"bad size", []string{"--min-size", "lots"}},
		{"bad regex", []string{"--name-regex", "("}},
		{"negative depth", []string{"--walk", "--max-depth", "-1"}},
		{"negative rate", []string{"--walk", "--rate", "-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"ls", "/Photos", "--config", cfg}, tt.args...)
			_, err := executeCommand(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, foundry.ExitInvalidArgument, ExitCode(err))
		})
	}
}

func TestLs_Walk(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--walk", "--concurrency", "2", "--rate", "100", "--config", cfg)
	require.NoError(t, err)

	recs := parseJSONL(t, out)
	require.NotEmpty(t, recs)
	assert.Equal(t, output.TypeFolder, recs[0].Type)
	assert.Equal(t, output.TypeSummary, recs[len(recs)-1].Type)
	assert.ElementsMatch(t,
		[]string{"/Photos/2020", "/Photos/a.jpg", "/Photos/big.jpg", "/Photos/2020/b.jpg"},
		entryFilenames(t, recs, output.TypeEntry))

	var sum output.SummaryRecord
	require.NoError(t, json.Unmarshal(recs[len(recs)-1].Data, &sum))
	assert.Equal(t, int64(1), sum.Folders)
	assert.Equal(t, int64(3), sum.Files)
	assert.Equal(t, int64(2056), sum.BytesTotal)
}

func TestLs_WalkMaxDepth(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--walk", "--max-depth", "1", "--config", cfg)
	require.NoError(t, err)
	names := entryFilenames(t, parseJSONL(t, out), output.TypeEntry)
	assert.Contains(t, names, "/Photos/2020")
	assert.NotContains(t, names, "/Photos/2020/b.jpg")
}

func TestLs_WalkTableFormat(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "ls", "/Photos", "--walk", "--format", "table", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "/Photos/2020/b.jpg")
	assert.Contains(t, out, "/Photos/a.jpg")
}

func TestLs_WalkNotFound(t *testing.T) {
	cfg := davFixture(t)

	_, err := executeCommand(t, "", "ls", "/Missing", "--walk", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, foundry.ExitFileNotFound, ExitCode(err))
}

func TestLs_WalkAndDeepExclusive(t *testing.T) {
	cfg := davFixture(t)

	_, err := executeCommand(t, "", "ls", "/Photos", "--walk", "--deep", "--config", cfg)
	require.Error(t, err)
}

func TestFilterListing(t *testing.T) {
	l := &gallery.Listing{
		Folders: []gallery.Entry{{Filename: "/P/sub"}, {Filename: "/P/.git"}},
		Files: []gallery.Entry{
			{Filename: "/P/a.jpg", Size: 10},
			{Filename: "/P/b.jpg", Size: 5000},
			{Filename: "/P/.x.jpg", Size: 10},
		},
	}
	m, err := match.New(match.Config{Includes: []string{"*.jpg"}})
	require.NoError(t, err)
	f, err := match.NewFilterFromConfig(&match.FilterConfig{Size: &match.SizeFilterConfig{Max: "1KB"}})
	require.NoError(t, err)

	filterListing(l, m, f)

	require.Len(t, l.Folders, 1)
	assert.Equal(t, "/P/sub", l.Folders[0].Filename)
	require.Len(t, l.Files, 1)
	assert.Equal(t, "/P/a.jpg", l.Files[0].Filename)
}
