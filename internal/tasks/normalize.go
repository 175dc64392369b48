package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
)

const unknownTitle = "Unknown Title"

var (
	errMissingInstanceID = errors.New("item has no instance_id")
	errMissingReleaseID  = errors.New("item has no release id")
)

// HasBasicInformation reports whether a collection item carries the inline summary block.
func HasBasicInformation(item map[string]any) bool {
	info, ok := item["basic_information"].(map[string]any)
	return ok && len(info) > 0
}

// NormalizeItem converts a collection item into a [models.Release].
//
// When detail is nil the item's basic_information block is the source and country stays nil.
// Otherwise detail is a full release object fetched separately and supplies every field,
// including country. The item itself always supplies the instance id, folder id and date added.
func NormalizeItem(item, detail map[string]any, syncedAt time.Time) (*models.Release, error) {
	src := detail
	if src == nil {
		info, ok := item["basic_information"].(map[string]any)
		if !ok || len(info) == 0 {
			return nil, errors.New("item has neither basic_information nor release detail")
		}
		src = info
	}

	instanceID, ok := toInt64(item["instance_id"])
	if !ok || instanceID <= 0 {
		return nil, errMissingInstanceID
	}

	releaseID, ok := toInt64(src["id"])
	if !ok {
		releaseID, ok = toInt64(item["id"])
	}
	if !ok || releaseID <= 0 {
		return nil, errMissingReleaseID
	}

	folderID, _ := toInt64(item["folder_id"])

	format, err := FormatString(src["formats"])
	if err != nil {
		return nil, err
	}

	title, _ := src["title"].(string)
	if title == "" {
		title = unknownTitle
	}

	labels := listOf(src["labels"])
	rel := &models.Release{
		DiscogsReleaseID:  releaseID,
		DiscogsInstanceID: instanceID,
		DiscogsFolderID:   folderID,
		Title:             title,
		ArtistName:        ArtistName(src["artists"]),
		Year:              Year(src["year"]),
		CoverImageURL:     CoverImage(src),
		Format:            format,
		Genres:            stringList(src["genres"]),
		Styles:            stringList(src["styles"]),
		Labels:            labelNames(labels),
		CatalogNumber:     CatalogNumber(labels),
		Metadata:          src,
		AddedAt:           dateAdded(item["date_added"]),
		SyncedAt:          syncedAt.UTC(),
	}

	if detail != nil {
		if country, ok := detail["country"].(string); ok && country != "" {
			rel.Country = &country
		}
	}

	return rel, nil
}

// ArtistName comma-joins the non-empty artist names, or returns [models.UnknownArtist].
func ArtistName(v any) string {
	names := []string{}
	for _, a := range listOf(v) {
		if name, _ := a["name"].(string); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return models.UnknownArtist
	}
	return strings.Join(names, ", ")
}

// CoverImage picks the primary image, then the first image, then cover_image, then thumb.
func CoverImage(src map[string]any) *string {
	images := listOf(src["images"])
	for _, img := range images {
		if t, _ := img["type"].(string); t == "primary" {
			if uri, _ := img["uri"].(string); uri != "" {
				return &uri
			}
		}
	}
	if len(images) > 0 {
		if uri, _ := images[0]["uri"].(string); uri != "" {
			return &uri
		}
	}
	for _, key := range []string{"cover_image", "thumb"} {
		if uri, _ := src[key].(string); uri != "" {
			return &uri
		}
	}
	return nil
}

// FormatString renders formats as "name" or "qtyxname" entries joined by ", ". No formats yields nil.
//
// A quantity that is neither a number nor a numeric string is an error.
func FormatString(v any) (*string, error) {
	formats := listOf(v)
	if len(formats) == 0 {
		return nil, nil
	}

	parts := make([]string, 0, len(formats))
	for _, f := range formats {
		name, _ := f["name"].(string)
		qty := int64(1)
		if raw, present := f["qty"]; present && raw != nil && raw != "" {
			n, ok := toInt64(raw)
			if !ok {
				return nil, fmt.Errorf("invalid format quantity %v", raw)
			}
			qty = n
		}

		if qty > 1 {
			parts = append(parts, fmt.Sprintf("%dx%s", qty, name))
		} else {
			parts = append(parts, name)
		}
	}

	s := strings.Join(parts, ", ")
	return &s, nil
}

// Year returns nil for absent, non-numeric, zero or negative values.
func Year(v any) *int {
	n, ok := toInt64(v)
	if !ok || n <= 0 {
		return nil
	}
	y := int(n)
	return &y
}

// CatalogNumber returns the first label's catno unless it is empty or "none".
func CatalogNumber(labels []map[string]any) *string {
	if len(labels) == 0 {
		return nil
	}
	catno, _ := labels[0]["catno"].(string)
	catno = strings.TrimSpace(catno)
	if catno == "" || strings.EqualFold(catno, "none") {
		return nil
	}
	return &catno
}

func labelNames(labels []map[string]any) []string {
	names := []string{}
	for _, l := range labels {
		if name, _ := l["name"].(string); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func dateAdded(v any) *time.Time {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// listOf returns the object elements of a JSON array, ignoring anything else.
func listOf(v any) []map[string]any {
	switch items := v.(type) {
	case []map[string]any:
		return items
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func stringList(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// toInt64 accepts the numeric shapes JSON decoding produces, plus numeric strings.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
