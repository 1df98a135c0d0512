package match

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/davgallery/pkg/gallery"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "raw bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "KB lowercase", input: "1kb", want: 1000},
		{name: "KB uppercase", input: "1KB", want: 1000},
		{name: "MB", input: "100MB", want: 100 * 1000 * 1000},
		{name: "KiB", input: "1KiB", want: 1024},
		{name: "MiB", input: "100MiB", want: 100 * 1024 * 1024},
		{name: "K shorthand", input: "1K", want: 1000},
		{name: "decimal KB", input: "1.5KB", want: 1500},
		{name: "space before unit", input: "100 MB", want: 100 * 1000 * 1000},
		{name: "leading space", input: " 100MB", want: 100 * 1000 * 1000},
		{name: "explicit bytes", input: "1024B", want: 1024},

		{name: "empty string", input: "", wantErr: true},
		{name: "negative", input: "-100", wantErr: true},
		{name: "overflow", input: "9223372036854775808", wantErr: true},
		{name: "invalid unit", input: "100XB", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSize))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "1.5 MiB", FormatSize(1024*1024*3/2))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "date only", input: "2024-01-15", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2024-01-15T10:30:00Z", want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "offset normalized", input: "2024-01-15T10:30:00+02:00", want: time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDate))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestSizeFilter(t *testing.T) {
	f, err := NewSizeFilter(&SizeFilterConfig{Min: "1KiB", Max: "1MiB"})
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.False(t, f.Match(&gallery.Entry{Size: 1023}))
	assert.True(t, f.Match(&gallery.Entry{Size: 1024}))
	assert.True(t, f.Match(&gallery.Entry{Size: 1024 * 1024}))
	assert.False(t, f.Match(&gallery.Entry{Size: 1024*1024 + 1}))
	assert.Equal(t, "size: 1.0 KiB - 1.0 MiB", f.String())

	nilFilter, err := NewSizeFilter(&SizeFilterConfig{})
	require.NoError(t, err)
	assert.Nil(t, nilFilter)

	_, err = NewSizeFilter(&SizeFilterConfig{Min: "2MB", Max: "1MB"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func TestDateFilter(t *testing.T) {
	f, err := NewDateFilter(&DateFilterConfig{After: "2024-01-01", Before: "2024-02-01"})
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.True(t, f.Match(&gallery.Entry{ModTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}))
	assert.True(t, f.Match(&gallery.Entry{ModTime: time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)}))
	assert.False(t, f.Match(&gallery.Entry{ModTime: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}))
	assert.False(t, f.Match(&gallery.Entry{ModTime: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)}))
	assert.False(t, f.Match(&gallery.Entry{}), "unknown modification time never matches")

	_, err = NewDateFilter(&DateFilterConfig{After: "2024-02-01", Before: "2024-01-01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestMimeFilter(t *testing.T) {
	assert.Nil(t, NewMimeFilter(nil))
	assert.Nil(t, NewMimeFilter([]string{" "}))

	f := NewMimeFilter([]string{"Image/JPEG", "image/png", "image/png"})
	require.NotNil(t, f)
	assert.True(t, f.Match(&gallery.Entry{Mime: "image/jpeg"}))
	assert.True(t, f.Match(&gallery.Entry{Mime: "image/png"}))
	assert.False(t, f.Match(&gallery.Entry{Mime: "text/plain"}))
	assert.False(t, f.Match(&gallery.Entry{Type: gallery.EntryTypeDirectory}))
	assert.Equal(t, "content_type: image/jpeg|image/png", f.String())
}

func TestRegexFilter(t *testing.T) {
	f, err := NewRegexFilter(`^/Photos/IMG_\d+\.jpg$`)
	require.NoError(t, err)
	assert.True(t, f.Match(&gallery.Entry{Filename: "/Photos/IMG_0001.jpg"}))
	assert.False(t, f.Match(&gallery.Entry{Filename: "/Photos/other.jpg"}))

	none, err := NewRegexFilter("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = NewRegexFilter("(")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRegex))
}

func TestNewFilterFromConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		f, err := NewFilterFromConfig(nil)
		require.NoError(t, err)
		assert.Nil(t, f)
		assert.True(t, f.Match(&gallery.Entry{}), "nil composite matches everything")
		assert.Equal(t, "no filters", f.String())
	})

	t.Run("empty config", func(t *testing.T) {
		f, err := NewFilterFromConfig(&FilterConfig{})
		require.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("combined", func(t *testing.T) {
		f, err := NewFilterFromConfig(&FilterConfig{
			Size:        &SizeFilterConfig{Min: "1KB"},
			ContentType: []string{"image/jpeg"},
			NameRegex:   `\.jpg$`,
		})
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Len(t, f.Filters(), 3)

		assert.True(t, f.Match(&gallery.Entry{Filename: "/a.jpg", Mime: "image/jpeg", Size: 2000}))
		assert.False(t, f.Match(&gallery.Entry{Filename: "/a.jpg", Mime: "image/jpeg", Size: 10}))
		assert.False(t, f.Match(&gallery.Entry{Filename: "/a.jpeg", Mime: "image/jpeg", Size: 2000}))
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := NewFilterFromConfig(&FilterConfig{Size: &SizeFilterConfig{Min: "nope"}})
		require.Error(t, err)
	})
}
