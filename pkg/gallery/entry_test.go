package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/davgallery/pkg/multistatus"
)

func bag(kv map[string]string) multistatus.PropBag {
	b := multistatus.PropBag{}
	for k, v := range kv {
		b[k] = multistatus.Property{Text: v}
	}
	return b
}

func dirBag(kv map[string]string) multistatus.PropBag {
	b := bag(kv)
	b[PropResourceType] = multistatus.Property{Children: []string{"collection"}}
	return b
}

func TestNormalize_File(t *testing.T) {
	props := bag(map[string]string{
		PropFileID:        "42",
		PropFavorite:      "1",
		PropHasPreview:    "true",
		PropContentType:   "image/JPEG; charset=binary",
		PropContentLength: "2048",
		PropETag:          `"abc123"`,
		PropLastModified:  "Mon, 15 Jan 2024 12:00:00 GMT",
		"permissions":     "RGDNVW",
	})

	e := Normalize(props, "/Photos/a.jpg", true)

	assert.Equal(t, "/Photos/a.jpg", e.Filename)
	assert.Equal(t, "a.jpg", e.Basename)
	assert.Equal(t, EntryTypeFile, e.Type)
	assert.Equal(t, "image/jpeg", e.Mime)
	assert.Equal(t, int64(2048), e.Size)
	assert.Equal(t, "abc123", e.ETag)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), e.ModTime)
	assert.Equal(t, int64(42), e.ID)
	assert.True(t, e.HasID())
	assert.True(t, e.IsFavorite)
	assert.True(t, e.HasPreview)
	assert.Equal(t, "RGDNVW", e.Props["permissions"])
	assert.Equal(t, "42", e.Props[PropFileID])
}

func TestNormalize_Directory(t *testing.T) {
	props := dirBag(map[string]string{PropFileID: "7", PropContentType: "httpd/unix-directory"})

	e := Normalize(props, "/Photos/2020", false)

	assert.Equal(t, EntryTypeDirectory, e.Type)
	assert.True(t, e.IsDir())
	assert.Empty(t, e.Mime)
	assert.Equal(t, "2020", e.Basename)
	assert.Nil(t, e.Props)
}

func TestNormalize_Root(t *testing.T) {
	e := Normalize(dirBag(nil), "/", false)
	assert.Equal(t, "/", e.Filename)
	assert.Empty(t, e.Basename)
}

func TestNormalize_MalformedEntry(t *testing.T) {
	e := Normalize(multistatus.PropBag{}, "/x.jpg", false)

	assert.Equal(t, NoID, e.ID)
	assert.False(t, e.HasID())
	assert.True(t, e.IsFavorite)
	assert.True(t, e.HasPreview)
	assert.Equal(t, EntryTypeFile, e.Type)
	assert.Empty(t, e.Mime)
	assert.Zero(t, e.Size)
	assert.True(t, e.ModTime.IsZero())
}

func TestNormalize_Idempotent(t *testing.T) {
	props := bag(map[string]string{PropFileID: "5", PropFavorite: "0", PropLastModified: "Tue, 02 Jan 2024 10:00:00 GMT"})
	first := Normalize(props, "/a.jpg", true)
	second := Normalize(props, "/a.jpg", true)
	assert.Equal(t, first, second)
}

func TestIsFavorite(t *testing.T) {
	tests := []struct {
		name     string
		props    multistatus.PropBag
		expected bool
	}{
		{"absent", multistatus.PropBag{}, true},
		{"zero", bag(map[string]string{PropFavorite: "0"}), false},
		{"one", bag(map[string]string{PropFavorite: "1"}), true},
		{"empty", bag(map[string]string{PropFavorite: ""}), true},
		{"false string", bag(map[string]string{PropFavorite: "false"}), true},
		{"padded zero", bag(map[string]string{PropFavorite: "00"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFavorite(tt.props))
		})
	}
}

func TestHasPreview(t *testing.T) {
	tests := []struct {
		name     string
		props    multistatus.PropBag
		expected bool
	}{
		{"absent", multistatus.PropBag{}, true},
		{"false", bag(map[string]string{PropHasPreview: "false"}), false},
		{"true", bag(map[string]string{PropHasPreview: "true"}), true},
		{"zero", bag(map[string]string{PropHasPreview: "0"}), true},
		{"uppercase", bag(map[string]string{PropHasPreview: "FALSE"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasPreview(tt.props))
		})
	}
}

func TestParseID(t *testing.T) {
	assert.Equal(t, int64(0), ParseID("0"))
	assert.Equal(t, int64(123), ParseID(" 123 "))
	assert.Equal(t, NoID, ParseID(""))
	assert.Equal(t, NoID, ParseID("abc"))
	assert.Equal(t, NoID, ParseID("-4"))
	assert.Equal(t, NoID, ParseID("12abc"))
}

func TestEntryType_String(t *testing.T) {
	require.Equal(t, "directory", EntryTypeDirectory.String())
	require.Equal(t, "file", EntryTypeFile.String())
}
