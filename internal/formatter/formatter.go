// package formatter exports playlists to CSV and Markdown and totals track durations.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "csv", "markdown" or "md". Empty defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, s)
}

// ContentType is the response media type for the format.
func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Extension is the file extension used for exports, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "csv"
}

// ParseDuration converts "m:ss" or "h:mm:ss" into seconds.
//
// ok is false for anything else, including empty strings.
func ParseDuration(s string) (seconds int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || p == "" || p[0] == '+' {
			return 0, false
		}
		seconds = seconds*60 + n
	}
	return seconds, true
}

// FormatTotalDuration renders seconds as "Xh Ym" when at least an hour, else "Ym".
func FormatTotalDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// TotalDuration sums the parsable track durations. Nil when nothing adds up to more than zero.
func TotalDuration(tracks []models.PlaylistTrack) *string {
	total := 0
	for _, t := range tracks {
		if t.Duration == nil {
			continue
		}
		if s, ok := ParseDuration(*t.Duration); ok {
			total += s
		}
	}
	if total == 0 {
		return nil
	}
	d := FormatTotalDuration(total)
	return &d
}

// ExportToCSV writes one row per track with columns: Order, Title, Artist, Position, Duration, Discogs Release
func ExportToCSV(pl *models.PlaylistWithTracks) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Order", "Title", "Artist", "Position", "Duration", "Discogs Release"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range pl.Tracks {
		record := []string{
			strconv.Itoa(track.TrackOrder),
			track.Title,
			track.Artist,
			deref(track.Position),
			deref(track.Duration),
			"",
		}
		if track.DiscogsReleaseID != nil {
			record[5] = strconv.FormatInt(*track.DiscogsReleaseID, 10)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the playlist as a heading, summary fields and a numbered track list.
func ExportToMarkdown(pl *models.PlaylistWithTracks) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", pl.Name)

	if pl.Description != nil && *pl.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", *pl.Description)
	}
	if len(pl.Tags) > 0 {
		fmt.Fprintf(&buf, "**Tags**: %s\n", strings.Join(pl.Tags, ", "))
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(pl.Tracks))
	if pl.TotalDuration != nil {
		fmt.Fprintf(&buf, "**Duration**: %s\n", *pl.TotalDuration)
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range pl.Tracks {
		line := fmt.Sprintf("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Duration != nil && *track.Duration != "" {
			line += fmt.Sprintf(" [%s]", *track.Duration)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Export renders pl in the given format.
func Export(pl *models.PlaylistWithTracks, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return ExportToMarkdown(pl)
	case FormatCSV:
		return ExportToCSV(pl)
	}
	return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, f)
}

// WriteExport renders pl and writes it to w.
func WriteExport(w io.Writer, pl *models.PlaylistWithTracks, f Format) error {
	data, err := Export(pl, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteExportFile writes the export to path, defaulting to {playlist id}.{ext}. Returns the path written.
func WriteExportFile(pl *models.PlaylistWithTracks, f Format, path string) (string, error) {
	if path == "" {
		path = pl.ID + "." + f.Extension()
	}

	data, err := Export(pl, f)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
