package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/bookshelf/internal/models"
	tu "github.com/desertthunder/bookshelf/internal/testing"
)

func fmtList(entries ...map[string]any) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		name    string
		formats any
		want    *string
	}{
		{"single vinyl", fmtList(map[string]any{"qty": "1", "name": "Vinyl"}), ptr("Vinyl")},
		{"double lp", fmtList(map[string]any{"qty": "2", "name": "LP"}), ptr("2xLP")},
		{"mixed", fmtList(map[string]any{"qty": "2", "name": "LP"}, map[string]any{"qty": "1", "name": "CD"}), ptr("2xLP, CD")},
		{"numeric qty", fmtList(map[string]any{"qty": float64(3), "name": "CD"}), ptr("3xCD")},
		{"json number qty", fmtList(map[string]any{"qty": json.Number("4"), "name": "File"}), ptr("4xFile")},
		{"missing qty", fmtList(map[string]any{"name": "Cassette"}), ptr("Cassette")},
		{"zero qty", fmtList(map[string]any{"qty": "0", "name": "Box Set"}), ptr("Box Set")},
		{"empty list", []any{}, nil},
		{"absent", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatString(tt.formats)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid qty", func(t *testing.T) {
		_, err := FormatString(fmtList(map[string]any{"qty": "two", "name": "LP"}))
		assert.Error(t, err)
	})
}

func TestYear(t *testing.T) {
	assert.Nil(t, Year(float64(0)))
	assert.Nil(t, Year(float64(-5)))
	assert.Nil(t, Year(nil))
	assert.Nil(t, Year("unknown"))
	assert.Equal(t, ptr(2020), Year(float64(2020)))
	assert.Equal(t, ptr(1987), Year("1987"))
}

func TestArtistName(t *testing.T) {
	assert.Equal(t, models.UnknownArtist, ArtistName(nil))
	assert.Equal(t, models.UnknownArtist, ArtistName([]any{}))
	assert.Equal(t, models.UnknownArtist, ArtistName([]any{map[string]any{"name": ""}}))
	assert.Equal(t, "Miles Davis", ArtistName([]any{map[string]any{"name": "Miles Davis"}}))
	assert.Equal(t, "Eric B., Rakim", ArtistName([]any{
		map[string]any{"name": "Eric B."},
		map[string]any{"name": "Rakim"},
	}))
}

func TestCoverImage(t *testing.T) {
	t.Run("primary wins", func(t *testing.T) {
		src := map[string]any{"images": []any{
			map[string]any{"type": "secondary", "uri": "second"},
			map[string]any{"type": "primary", "uri": "first"},
		}, "thumb": "thumb"}
		assert.Equal(t, ptr("first"), CoverImage(src))
	})

	t.Run("first image without primary", func(t *testing.T) {
		src := map[string]any{"images": []any{map[string]any{"type": "secondary", "uri": "second"}}}
		assert.Equal(t, ptr("second"), CoverImage(src))
	})

	t.Run("cover_image then thumb", func(t *testing.T) {
		assert.Equal(t, ptr("cover"), CoverImage(map[string]any{"cover_image": "cover", "thumb": "thumb"}))
		assert.Equal(t, ptr("thumb"), CoverImage(map[string]any{"cover_image": "", "thumb": "thumb"}))
	})

	t.Run("nothing", func(t *testing.T) {
		assert.Nil(t, CoverImage(map[string]any{}))
	})
}

func TestCatalogNumber(t *testing.T) {
	assert.Nil(t, CatalogNumber(nil))
	assert.Nil(t, CatalogNumber([]map[string]any{{"catno": "none"}}))
	assert.Nil(t, CatalogNumber([]map[string]any{{"catno": ""}}))
	assert.Equal(t, ptr("BLP 1577"), CatalogNumber([]map[string]any{{"catno": "BLP 1577"}, {"catno": "other"}}))
}

func TestNormalizeItem(t *testing.T) {
	syncedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Basic Information", func(t *testing.T) {
		item := tu.BasicItem(1001, 10, "Blue Train", "John Coltrane")

		rel, err := NormalizeItem(item, nil, syncedAt)
		require.NoError(t, err)
		assert.EqualValues(t, 10, rel.DiscogsReleaseID)
		assert.EqualValues(t, 1001, rel.DiscogsInstanceID)
		assert.EqualValues(t, 1, rel.DiscogsFolderID)
		assert.Equal(t, "Blue Train", rel.Title)
		assert.Equal(t, "John Coltrane", rel.ArtistName)
		assert.Equal(t, ptr(1999), rel.Year)
		assert.Equal(t, ptr("Vinyl"), rel.Format)
		assert.Equal(t, []string{"Jazz"}, rel.Genres)
		assert.Equal(t, []string{"Hard Bop"}, rel.Styles)
		assert.Equal(t, []string{"Label"}, rel.Labels)
		assert.Equal(t, ptr("CAT-1"), rel.CatalogNumber)
		assert.Equal(t, ptr("https://img.example.com/10.jpg"), rel.CoverImageURL)
		assert.Nil(t, rel.Country, "the summary path never sets country")
		require.NotNil(t, rel.AddedAt)
		assert.Equal(t, time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC), *rel.AddedAt)
		assert.Equal(t, syncedAt, rel.SyncedAt)
		assert.Equal(t, "Blue Train", rel.Metadata["title"])
	})

	t.Run("Release Detail", func(t *testing.T) {
		item := tu.BareItem(2002, 20)
		detail := tu.ReleaseDetail(20, "Live", "UK")

		rel, err := NormalizeItem(item, detail, syncedAt)
		require.NoError(t, err)
		assert.EqualValues(t, 2002, rel.DiscogsInstanceID)
		assert.Equal(t, ptr("UK"), rel.Country)
		assert.Equal(t, "Detail Artist", rel.ArtistName)
		assert.Equal(t, ptr("https://img.example.com/primary.jpg"), rel.CoverImageURL)
		assert.Equal(t, ptr("2xCD"), rel.Format)
		assert.Nil(t, rel.CatalogNumber)
		assert.Equal(t, ptr(2001), rel.Year)
		assert.Nil(t, rel.AddedAt)
	})

	t.Run("Folder Id From Item", func(t *testing.T) {
		item := tu.BasicItem(1001, 10, "Blue Train", "John Coltrane")
		item["folder_id"] = float64(5)

		rel, err := NormalizeItem(item, nil, syncedAt)
		require.NoError(t, err)
		assert.EqualValues(t, 5, rel.DiscogsFolderID)

		rel, err = NormalizeItem(tu.BareItem(2002, 20), tu.ReleaseDetail(20, "Live", "UK"), syncedAt)
		require.NoError(t, err)
		assert.EqualValues(t, 1, rel.DiscogsFolderID)
	})

	t.Run("Missing Title", func(t *testing.T) {
		item := tu.BasicItem(1, 1, "")
		rel, err := NormalizeItem(item, nil, syncedAt)
		require.NoError(t, err)
		assert.Equal(t, unknownTitle, rel.Title)
		assert.Equal(t, models.UnknownArtist, rel.ArtistName)
	})

	t.Run("Release Id From Item", func(t *testing.T) {
		item := tu.BasicItem(1, 77, "x")
		delete(item["basic_information"].(map[string]any), "id")
		rel, err := NormalizeItem(item, nil, syncedAt)
		require.NoError(t, err)
		assert.EqualValues(t, 77, rel.DiscogsReleaseID)
	})

	t.Run("Missing Instance Id", func(t *testing.T) {
		item := tu.BasicItem(1, 1, "x")
		delete(item, "instance_id")
		_, err := NormalizeItem(item, nil, syncedAt)
		assert.ErrorIs(t, err, errMissingInstanceID)
	})

	t.Run("No Source", func(t *testing.T) {
		_, err := NormalizeItem(tu.BareItem(1, 1), nil, syncedAt)
		assert.Error(t, err)
	})

	t.Run("Bad Quantity", func(t *testing.T) {
		item := tu.BasicItem(1, 1, "x")
		item["basic_information"].(map[string]any)["formats"] = fmtList(map[string]any{"qty": "lots", "name": "LP"})
		_, err := NormalizeItem(item, nil, syncedAt)
		assert.Error(t, err)
	})
}

func ptr[T any](v T) *T { return &v }
