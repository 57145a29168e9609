package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	th "github.com/desertthunder/nbx/internal/testing"
)

func sampleListing() Listing {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return Listing{
		NotebookID: "nb-1",
		Artifacts: []models.Artifact{
			{ID: "command:abc", Type: models.ArtifactPodcast, Status: "running", Title: "Episode 1"},
			{ID: "art_123", Type: models.ArtifactQuiz, Status: "completed", Title: "Cells | Quiz", CreatedAt: &created},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TXT", FormatText},
		{"json", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{" Markdown ", FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestStatusLabel(t *testing.T) {
	t.Run("In Progress Podcast", func(t *testing.T) {
		if got := StatusLabel(models.Artifact{ID: "command:x", Type: models.ArtifactPodcast, Status: "completed"}); got != "generating" {
			t.Errorf("expected generating, got %s", got)
		}
	})

	t.Run("Missing Status", func(t *testing.T) {
		if got := StatusLabel(models.Artifact{ID: "art_1", Type: models.ArtifactNote}); got != "ready" {
			t.Errorf("expected ready, got %s", got)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ArtifactsToCSV", func(t *testing.T) {
		data, err := ArtifactsToCSV(sampleListing())
		if err != nil {
			t.Fatalf("ArtifactsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Type,Status,Title,Created\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "command:abc,podcast,generating,Episode 1,") {
			t.Errorf("CSV missing pending podcast, got: %s", output)
		}
		if !strings.Contains(output, "art_123,quiz,completed,Cells | Quiz,2025-03-14 09:26:53") {
			t.Errorf("CSV missing quiz, got: %s", output)
		}
	})

	t.Run("ArtifactsToJSON", func(t *testing.T) {
		data, err := ArtifactsToJSON(sampleListing())
		if err != nil {
			t.Fatalf("ArtifactsToJSON failed: %v", err)
		}

		var decoded struct {
			NotebookID string `json:"notebook_id"`
			Artifacts  []struct {
				ID   string `json:"artifact_id"`
				Type string `json:"artifact_type"`
			} `json:"artifacts"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.NotebookID != "nb-1" || len(decoded.Artifacts) != 2 {
			t.Errorf("unexpected document %+v", decoded)
		}
		if decoded.Artifacts[0].ID != "command:abc" {
			t.Errorf("expected prefix preserved, got %s", decoded.Artifacts[0].ID)
		}
	})

	t.Run("ArtifactsToJSON Empty", func(t *testing.T) {
		data, err := ArtifactsToJSON(Listing{NotebookID: "nb-2"})
		if err != nil {
			t.Fatalf("ArtifactsToJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"artifacts": []`) {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("ArtifactsToMarkdown", func(t *testing.T) {
		listing := sampleListing()
		listing.Stalled = true

		data, err := ArtifactsToMarkdown(listing)
		if err != nil {
			t.Fatalf("ArtifactsToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Notebook nb-1",
			"**Artifacts**: 2",
			"**Generating**: 1",
			"> Could not refresh",
			"| `command:abc` | podcast | generating | Episode 1 |  |",
			`Cells \| Quiz`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ArtifactsToMarkdown Empty", func(t *testing.T) {
		data, _ := ArtifactsToMarkdown(Listing{NotebookID: "nb-2"})
		if !strings.Contains(string(data), "_No artifacts yet._") {
			t.Errorf("expected empty notice, got %s", data)
		}
	})

	t.Run("ArtifactsToText", func(t *testing.T) {
		listing := sampleListing()
		listing.ActiveJob = &models.ActiveJob{JobID: "abc", ArtifactType: models.ArtifactPodcast, NotebookID: "nb-1", StartedAt: time.Now()}

		data, err := ArtifactsToText(listing)
		if err != nil {
			t.Fatalf("ArtifactsToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Artifacts: 2 (1 generating)") {
			t.Errorf("text missing summary, got:\n%s", output)
		}
		if !strings.Contains(output, "Active job: abc (podcast") {
			t.Errorf("text missing active job, got:\n%s", output)
		}
		if !strings.Contains(output, "command:abc") || !strings.Contains(output, "generating") {
			t.Errorf("text missing pending podcast, got:\n%s", output)
		}
	})

	t.Run("ArtifactsToText Ignores Job Of Other Notebook", func(t *testing.T) {
		listing := sampleListing()
		listing.ActiveJob = &models.ActiveJob{JobID: "zzz", NotebookID: "nb-9"}

		data, _ := ArtifactsToText(listing)
		if strings.Contains(string(data), "Active job") {
			t.Errorf("expected no active job line, got:\n%s", data)
		}
	})
}

func TestRenderArtifacts(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderArtifacts(&buf, format, sampleListing()); err != nil {
				t.Fatalf("RenderArtifacts failed: %v", err)
			}
			if !strings.Contains(buf.String(), "art_123") {
				t.Errorf("output missing artifact, got:\n%s", buf.String())
			}
		})
	}

	t.Run("Write Error", func(t *testing.T) {
		if err := RenderArtifacts(&th.FWriter{}, FormatText, sampleListing()); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestWriteArtifactsExport(t *testing.T) {
	t.Run("Explicit Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		got, err := WriteArtifactsExport(sampleListing(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteArtifactsExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "ID,Type") {
			t.Errorf("unexpected content %s", content)
		}
	})

	t.Run("Default Filename", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteArtifactsExport(sampleListing(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteArtifactsExport failed: %v", err)
		}
		if got != "nb-1_artifacts.md" {
			t.Errorf("expected nb-1_artifacts.md, got %s", got)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if _, err := WriteArtifactsExport(sampleListing(), FormatText, path); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRenderLandingLists(t *testing.T) {
	t.Run("Notebooks", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderNotebooks(&buf, []models.Notebook{{ID: "nb-1", Name: "Biology"}}); err != nil {
			t.Fatalf("RenderNotebooks failed: %v", err)
		}
		if !strings.Contains(buf.String(), "nb-1") || !strings.Contains(buf.String(), "Biology") {
			t.Errorf("unexpected output %s", buf.String())
		}
	})

	t.Run("Modules", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderModules(&buf, []models.Module{{ID: "m-1", Name: "Cells", NotebookID: "nb-1"}}); err != nil {
			t.Fatalf("RenderModules failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Cells") {
			t.Errorf("unexpected output %s", buf.String())
		}
	})
}
