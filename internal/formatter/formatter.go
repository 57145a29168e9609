// package formatter renders artifact listings and landing lists in various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat resolves a user-supplied format name. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// Listing is the artifact listing of one notebook together with the locally tracked job, if any.
type Listing struct {
	NotebookID string            `json:"notebook_id"`
	Artifacts  []models.Artifact `json:"artifacts"`
	ActiveJob  *models.ActiveJob `json:"-"`
	Stalled    bool              `json:"stalled,omitempty"`
}

// StatusLabel describes an artifact for display. In-progress podcasts always read "generating".
func StatusLabel(a models.Artifact) string {
	if a.InProgress() {
		return "generating"
	}
	if a.Status == "" {
		return "ready"
	}
	return a.Status
}

func createdLabel(a models.Artifact) string {
	if a.CreatedAt == nil {
		return ""
	}
	return a.CreatedAt.Format(time.DateTime)
}

// ArtifactsToCSV converts a listing to CSV with columns: ID, Type, Status, Title, Created
func ArtifactsToCSV(listing Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Type", "Status", "Title", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range listing.Artifacts {
		record := []string{a.ID, string(a.Type), StatusLabel(a), a.Title, createdLabel(a)}
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

// ArtifactsToJSON converts a listing to indented JSON. Artifact ids are emitted unchanged.
func ArtifactsToJSON(listing Listing) ([]byte, error) {
	if listing.Artifacts == nil {
		listing.Artifacts = []models.Artifact{}
	}
	return shared.MarshalJSON(listing, true)
}

// ArtifactsToMarkdown converts a listing to a Markdown document with a table of artifacts
func ArtifactsToMarkdown(listing Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Notebook %s\n\n", listing.NotebookID)
	fmt.Fprintf(&buf, "**Artifacts**: %d\n", len(listing.Artifacts))
	fmt.Fprintf(&buf, "**Generating**: %d\n\n", countInProgress(listing.Artifacts))

	if listing.Stalled {
		buf.WriteString("> Could not refresh this listing. Generation may still be running.\n\n")
	}

	if len(listing.Artifacts) == 0 {
		buf.WriteString("_No artifacts yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| ID | Type | Status | Title | Created |\n")
	buf.WriteString("|----|------|--------|-------|---------|\n")
	for _, a := range listing.Artifacts {
		fmt.Fprintf(&buf, "| `%s` | %s | %s | %s | %s |\n", a.ID, a.Type, StatusLabel(a), escapePipes(a.Title), createdLabel(a))
	}

	return buf.Bytes(), nil
}

// ArtifactsToText converts a listing to an aligned plain text table
func ArtifactsToText(listing Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Notebook: %s\n", listing.NotebookID)
	fmt.Fprintf(&buf, "Artifacts: %d (%d generating)\n", len(listing.Artifacts), countInProgress(listing.Artifacts))
	if job := listing.ActiveJob; job != nil && job.NotebookID == listing.NotebookID {
		fmt.Fprintf(&buf, "Active job: %s (%s, started %s)\n", job.JobID, job.ArtifactType, job.StartedAt.Format(time.Kitchen))
	}
	if listing.Stalled {
		buf.WriteString("Warning: could not refresh artifacts; generation may still be running\n")
	}
	buf.WriteString("\n")

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tTITLE")
	for _, a := range listing.Artifacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Type, StatusLabel(a), a.Title)
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write table: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderArtifacts writes listing to w in format.
func RenderArtifacts(w io.Writer, format Format, listing Listing) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatJSON:
		data, err = ArtifactsToJSON(listing)
	case FormatCSV:
		data, err = ArtifactsToCSV(listing)
	case FormatMarkdown:
		data, err = ArtifactsToMarkdown(listing)
	default:
		data, err = ArtifactsToText(listing)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if format == FormatJSON {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// WriteArtifactsExport writes listing to a file and returns its path.
//
// Defaults to {notebookID}_artifacts.{ext} as the filename.
func WriteArtifactsExport(listing Listing, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_artifacts.%s", listing.NotebookID, format.Extension())
	}

	var buf bytes.Buffer
	if err := RenderArtifacts(&buf, format, listing); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// RenderNotebooks writes the admin landing list to w.
func RenderNotebooks(w io.Writer, notebooks []models.Notebook) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, nb := range notebooks {
		fmt.Fprintf(tw, "%s\t%s\n", nb.ID, nb.Name)
	}
	return tw.Flush()
}

// RenderModules writes the learner landing list to w.
func RenderModules(w io.Writer, modules []models.Module) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNOTEBOOK")
	for _, m := range modules {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.NotebookID)
	}
	return tw.Flush()
}

func countInProgress(artifacts []models.Artifact) int {
	n := 0
	for _, a := range artifacts {
		if a.InProgress() {
			n++
		}
	}
	return n
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
