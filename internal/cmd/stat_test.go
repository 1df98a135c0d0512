package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/output"
)

func TestStat_Args(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "stat", "/Photos/a.jpg", "/Photos/c.png", "/", "--config", cfg)
	require.NoError(t, err)

	recs := parseJSONL(t, out)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"/Photos/a.jpg", "/Photos/c.png", "/"}, entryFilenames(t, recs, output.TypeEntry),
		"results keep input order")

	var png gallery.Entry
	require.NoError(t, json.Unmarshal(recs[1].Data, &png))
	assert.Equal(t, "image/png", png.Mime, "stat does not apply the MIME policy")

	var root gallery.Entry
	require.NoError(t, json.Unmarshal(recs[2].Data, &root))
	assert.True(t, root.IsDir())

	var sum output.SummaryRecord
	require.NoError(t, json.Unmarshal(recs[3].Data, &sum))
	assert.Equal(t, int64(2), sum.Files)
	assert.Equal(t, int64(1), sum.Folders)
	assert.Equal(t, int64(0), sum.Errors)
}

func TestStat_StdinWithErrors(t *testing.T) {
	cfg := davFixture(t)

	stdin := strings.Join([]string{
		"# comment",
		"/Photos/a.jpg",
		"",
		"/Photos/missing.jpg",
		"/Photos/2020",
	}, "\n")

	out, err := executeCommand(t, stdin, "stat", "--stdin", "--concurrency", "2", "--rate", "100", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, foundry.ExitFileNotFound, ExitCode(err))

	recs := parseJSONL(t, out)
	require.Len(t, recs, 4)
	assert.Equal(t, output.TypeEntry, recs[0].Type)
	assert.Equal(t, output.TypeError, recs[1].Type)
	assert.Equal(t, output.TypeEntry, recs[2].Type)

	var errRec output.ErrorRecord
	require.NoError(t, json.Unmarshal(recs[1].Data, &errRec))
	assert.Equal(t, output.ErrCodeNotFound, errRec.Code)
	assert.Equal(t, "/Photos/missing.jpg", errRec.Path)
	assert.Equal(t, 404, errRec.Status)

	var sum output.SummaryRecord
	require.NoError(t, json.Unmarshal(recs[3].Data, &sum))
	assert.Equal(t, int64(1), sum.Errors)
	assert.Len(t, sum.Paths, 3)
}

func TestStat_YAMLFormat(t *testing.T) {
	cfg := davFixture(t)

	out, err := executeCommand(t, "", "stat", "/Photos/a.jpg", "--config", cfg, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "filename: /Photos/a.jpg")
	assert.Contains(t, out, "mime: image/jpeg")
}

func TestStat_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"no paths", "", []string{"stat"}},
		{"paths with stdin", "/a", []string{"stat", "/b", "--stdin"}},
		{"negative concurrency", "", []string{"stat", "/a", "--concurrency", "-1"}},
		{"negative rate", "", []string{"stat", "/a", "--rate", "-2"}},
		{"bad format", "", []string{"stat", "/a", "--format", "csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Equal(t, foundry.ExitInvalidArgument, ExitCode(err))
		})
	}
}

func TestStat_EmptyStdin(t *testing.T) {
	out, err := executeCommand(t, "\n# nothing\n", "stat", "--stdin")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadPathLines(t *testing.T) {
	got, err := readPathLines(strings.NewReader("  /a  \n\n#skip\n/b/c.jpg\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b/c.jpg"}, got)
}
