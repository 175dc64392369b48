package formatter

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
	th "github.com/desertthunder/bookshelf/internal/testing"
)

func str(s string) *string { return &s }

func samplePlaylist() *models.PlaylistWithTracks {
	releaseID := int64(249504)
	return &models.PlaylistWithTracks{
		Playlist: models.Playlist{
			ID:          "pl-1",
			Name:        "Late Night",
			Description: str("Slow records"),
			Tags:        []string{"jazz", "night"},
		},
		Tracks: []models.PlaylistTrack{
			{ID: "t1", Title: "So What", Artist: "Miles Davis", Position: str("A1"), Duration: str("9:22"), TrackOrder: 1, DiscogsReleaseID: &releaseID},
			{ID: "t2", Title: "Naima, Live", Artist: "John Coltrane", Duration: str("4:21"), TrackOrder: 2},
			{ID: "t3", Title: "Untimed", Artist: "Unknown Artist", TrackOrder: 3},
		},
		TotalDuration: str("13m"),
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3:30", 210, true},
		{"0:05", 5, true},
		{"45:00", 2700, true},
		{"1:02:03", 3723, true},
		{" 4:15 ", 255, true},
		{"", 0, false},
		{"3", 0, false},
		{"3:", 0, false},
		{"a:bc", 0, false},
		{"-1:00", 0, false},
		{"+1:00", 0, false},
		{"1:2:3:4", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseDuration(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseDuration(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTotalDuration(t *testing.T) {
	t.Run("Minutes Only", func(t *testing.T) {
		got := TotalDuration([]models.PlaylistTrack{{Duration: str("3:30")}, {Duration: str("4:15")}})
		if got == nil || *got != "7m" {
			t.Errorf("expected 7m, got %v", got)
		}
	})

	t.Run("With Hours", func(t *testing.T) {
		got := TotalDuration([]models.PlaylistTrack{{Duration: str("30:00")}, {Duration: str("45:00")}})
		if got == nil || *got != "1h 15m" {
			t.Errorf("expected 1h 15m, got %v", got)
		}
	})

	t.Run("Skips Missing And Invalid", func(t *testing.T) {
		got := TotalDuration([]models.PlaylistTrack{{Duration: nil}, {Duration: str("n/a")}, {Duration: str("3:30")}})
		if got == nil || *got != "3m" {
			t.Errorf("expected 3m, got %v", got)
		}
	})

	t.Run("Nothing Parsable", func(t *testing.T) {
		if got := TotalDuration([]models.PlaylistTrack{{Duration: nil}, {Duration: str("0:00")}}); got != nil {
			t.Errorf("expected nil, got %q", *got)
		}
		if got := TotalDuration(nil); got != nil {
			t.Errorf("expected nil for empty playlist, got %q", *got)
		}
	})

	if got := FormatTotalDuration(59); got != "0m" {
		t.Errorf("FormatTotalDuration(59) = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "markdown": FormatMarkdown, "md": FormatMarkdown} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseFormat("xlsx"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if FormatMarkdown.Extension() != "md" || FormatCSV.Extension() != "csv" {
		t.Error("unexpected extensions")
	}
	if !strings.HasPrefix(FormatCSV.ContentType(), "text/csv") {
		t.Errorf("unexpected content type %q", FormatCSV.ContentType())
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
		}
		if lines[0] != "Order,Title,Artist,Position,Duration,Discogs Release" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,So What,Miles Davis,A1,9:22,249504" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[2] != `2,"Naima, Live",John Coltrane,,4:21,` {
			t.Errorf("expected quoted title in second row: %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Late Night\n",
			"**Description**: Slow records",
			"**Tags**: jazz, night",
			"**Tracks**: 3",
			"**Duration**: 13m",
			"## Tracks",
			"1. Miles Davis - So What [9:22]",
			"3. Unknown Artist - Untimed\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Without Optional Fields", func(t *testing.T) {
		pl := &models.PlaylistWithTracks{Playlist: models.Playlist{ID: "p", Name: "Empty"}}
		data, err := ExportToMarkdown(pl)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)
		if strings.Contains(output, "**Description**") || strings.Contains(output, "**Duration**") || strings.Contains(output, "**Tags**") {
			t.Errorf("unexpected optional fields:\n%s", output)
		}
		if !strings.Contains(output, "**Tracks**: 0") {
			t.Errorf("missing track count:\n%s", output)
		}
	})

	t.Run("Export Rejects Unknown Format", func(t *testing.T) {
		if _, err := Export(samplePlaylist(), Format("pdf")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Writer", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteExport(&buf, samplePlaylist(), FormatMarkdown); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "# Late Night") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("Writer Failure", func(t *testing.T) {
		err := WriteExport(&th.FWriter{}, samplePlaylist(), FormatCSV)
		if err == nil || !strings.Contains(err.Error(), "failed to write export") {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("File With Explicit Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		written, err := WriteExportFile(samplePlaylist(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExportFile failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}
		if content := th.MustReadFile(t, path); !strings.Contains(content, "So What") {
			t.Errorf("file missing track, got: %s", content)
		}
	})

	t.Run("File Default Path", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteExportFile(samplePlaylist(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExportFile failed: %v", err)
		}
		if written != "pl-1.md" {
			t.Errorf("expected pl-1.md, got %s", written)
		}
		th.MustReadFile(t, written)
	})

	t.Run("File Unwritable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.csv")
		if _, err := WriteExportFile(samplePlaylist(), FormatCSV, path); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
