// Package report renders recommendation results for the terminal.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/codehack/movierec/internal/models"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "yaml"}

// WriteResult renders a recommendation result in the given format
func WriteResult(w io.Writer, result *models.RecommendationResult, format string) error {
	switch format {
	case "text":
		return writeTextResult(w, result)
	case "json":
		return writeJSON(w, result)
	case "csv":
		return writeCSVResult(w, result)
	case "yaml":
		return writeYAML(w, result)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteDetails renders a single metadata record in the given format
func WriteDetails(w io.Writer, rec *models.MetadataRecord, format string) error {
	switch format {
	case "text":
		return writeTextDetails(w, rec, "")
	case "json":
		return writeJSON(w, rec)
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(detailsHeader); err != nil {
			return err
		}
		if err := cw.Write(detailsRow(rec)); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case "yaml":
		return writeYAML(w, rec)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

func writeTextResult(w io.Writer, result *models.RecommendationResult) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Movies similar to %s (id %d)\n", result.Query.Title, result.Query.ID)
	b.WriteString("========================================\n")
	if err := writeTextDetails(&b, &result.Selected, ""); err != nil {
		return err
	}

	b.WriteString("\nRecommendations:\n")
	b.WriteString("========================================\n")
	if len(result.Recommendations) == 0 {
		b.WriteString("  No recommendations available\n")
	}
	for i, r := range result.Recommendations {
		fmt.Fprintf(&b, "\n[%d] %s (id %d)  similarity %.4f\n", i+1, r.Title, r.MovieID, r.Score)
		if err := writeTextDetails(&b, &r.Metadata, "  "); err != nil {
			return err
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", warning)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextDetails(w io.Writer, rec *models.MetadataRecord, indent string) error {
	var b strings.Builder

	title := rec.Title
	if rec.ReleaseYear != "" {
		title += " (" + rec.ReleaseYear + ")"
	}
	fmt.Fprintf(&b, "%sTitle:    %s\n", indent, title)
	if rec.Tagline != "" {
		fmt.Fprintf(&b, "%sTagline:  %s\n", indent, rec.Tagline)
	}
	fmt.Fprintf(&b, "%sRating:   %.1f/10 (%d votes)\n", indent, rec.RatingAverage, rec.VoteCount)
	if rec.ReleaseDateDisplay != "" {
		fmt.Fprintf(&b, "%sReleased: %s\n", indent, rec.ReleaseDateDisplay)
	}
	if rec.RuntimeDisplay != "" {
		fmt.Fprintf(&b, "%sRuntime:  %s\n", indent, rec.RuntimeDisplay)
	}
	if rec.Genres != "" {
		fmt.Fprintf(&b, "%sGenres:   %s\n", indent, rec.Genres)
	}
	if rec.PosterURL != nil {
		fmt.Fprintf(&b, "%sPoster:   %s\n", indent, *rec.PosterURL)
	}
	if rec.ExternalReferenceID != "" {
		fmt.Fprintf(&b, "%sIMDb:     https://www.imdb.com/title/%s/\n", indent, rec.ExternalReferenceID)
	}
	fmt.Fprintf(&b, "%sOverview: %s\n", indent, truncate(rec.Overview, 300))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return encoder.Close()
}

var detailsHeader = []string{"Title", "Year", "Rating", "Votes", "Runtime", "Genres", "IMDb ID", "Fallback"}

func detailsRow(rec *models.MetadataRecord) []string {
	return []string{
		rec.Title,
		rec.ReleaseYear,
		strconv.FormatFloat(rec.RatingAverage, 'f', 1, 64),
		strconv.Itoa(rec.VoteCount),
		rec.RuntimeDisplay,
		rec.Genres,
		rec.ExternalReferenceID,
		strconv.FormatBool(rec.Fallback),
	}
}

func writeCSVResult(w io.Writer, result *models.RecommendationResult) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Rank", "Movie ID", "Score"}, detailsHeader...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range result.Recommendations {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(r.MovieID, 10),
			strconv.FormatFloat(r.Score, 'f', 6, 64),
		}
		row = append(row, detailsRow(&r.Metadata)...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
