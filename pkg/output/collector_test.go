package output

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/provider"
)

func TestListingCollector(t *testing.T) {
	ctx := context.Background()
	c := NewListingCollector()

	assert.False(t, c.Listing().HasFolder())
	assert.Nil(t, c.Summary())

	folder := gallery.Entry{Filename: "/Photos", Type: gallery.EntryTypeDirectory, ID: 1}
	sub := gallery.Entry{Filename: "/Photos/2020", Type: gallery.EntryTypeDirectory}
	file := jpeg("a.jpg", 10)

	require.NoError(t, c.WriteFolder(ctx, &folder))
	require.NoError(t, c.WriteEntry(ctx, &sub))
	require.NoError(t, c.WriteEntry(ctx, &file))
	require.NoError(t, c.WriteError(ctx, NewErrorRecord("/Photos/x", provider.ErrNotFound)))
	require.NoError(t, c.WriteSummary(ctx, &SummaryRecord{Files: 1}))
	require.NoError(t, c.Close())

	l := c.Listing()
	assert.Equal(t, "/Photos", l.Folder.Filename)
	require.Len(t, l.Folders, 1)
	assert.Equal(t, "/Photos/2020", l.Folders[0].Filename)
	require.Len(t, l.Files, 1)
	assert.Equal(t, "/Photos/a.jpg", l.Files[0].Filename)

	require.Len(t, c.Errors(), 1)
	assert.Equal(t, ErrCodeNotFound, c.Errors()[0].Code)
	assert.Equal(t, int64(1), c.Summary().Files)
}

func TestListingCollector_WriteListingRoundTrip(t *testing.T) {
	src := &gallery.Listing{
		Folder:  gallery.Entry{Filename: "/Photos", Type: gallery.EntryTypeDirectory},
		Folders: []gallery.Entry{{Filename: "/Photos/2020", Type: gallery.EntryTypeDirectory}},
		Files:   []gallery.Entry{jpeg("a.jpg", 3), jpeg("b.jpg", 4)},
	}
	c := NewListingCollector()

	folders, files, bytes, err := WriteListing(context.Background(), c, src)
	require.NoError(t, err)
	assert.Equal(t, int64(1), folders)
	assert.Equal(t, int64(2), files)
	assert.Equal(t, int64(7), bytes)
	assert.Equal(t, src, c.Listing())
}
