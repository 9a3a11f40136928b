package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kecaps/lsh/domain"
)

// DedupFormatter implements the domain.DedupOutputFormatter interface
type DedupFormatter struct {
	showDetails bool
}

// NewDedupFormatter creates a new dedup output formatter. When showDetails
// is set, the text format lists every file's candidate duplicates after the
// group listing.
func NewDedupFormatter(showDetails bool) *DedupFormatter {
	return &DedupFormatter{showDetails: showDetails}
}

// Format formats the dedup response according to the specified format
func (f *DedupFormatter) Format(response *domain.DedupResponse, format domain.OutputFormat) (string, error) {
	var buf bytes.Buffer
	if err := f.Write(response, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write writes the formatted output to the writer
func (f *DedupFormatter) Write(response *domain.DedupResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		return f.formatAsText(response, writer)
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.formatAsCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// formatAsText formats the response as human-readable text
func (f *DedupFormatter) formatAsText(response *domain.DedupResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "Duplicate Detection Results\n")
	fmt.Fprintf(writer, "===========================\n\n")

	summary := response.Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files scanned: %d\n", summary.TotalFiles)
	fmt.Fprintf(writer, "  Files skipped: %d\n", summary.SkippedFiles)
	fmt.Fprintf(writer, "  Files with duplicates: %d\n", summary.FilesWithDuplicates)
	fmt.Fprintf(writer, "  Duplicate groups: %d\n", summary.TotalGroups)
	if summary.LargestGroupSize > 0 {
		fmt.Fprintf(writer, "  Largest group: %d files\n", summary.LargestGroupSize)
	}
	fmt.Fprintf(writer, "  Analysis duration: %dms\n\n", response.Duration)

	stats := summary.IndexStats
	fmt.Fprintf(writer, "Index:\n")
	fmt.Fprintf(writer, "  Bands: %d (%d rows per band)\n", stats.Bands, stats.RowsPerBand)
	fmt.Fprintf(writer, "  Buckets: %d (min %d, max %d, avg %.2f)\n\n",
		stats.NumBuckets, stats.MinBucketSize, stats.MaxBucketSize, stats.AvgBucketSize)

	if len(response.Groups) == 0 {
		fmt.Fprintf(writer, "No duplicates found.\n")
		return nil
	}

	fmt.Fprintf(writer, "Duplicate Groups:\n")
	fmt.Fprintf(writer, "=================\n\n")
	for _, group := range response.Groups {
		fmt.Fprintf(writer, "Group %d (%d files):\n", group.ID, group.Size)
		for i, path := range group.Paths {
			fmt.Fprintf(writer, "  %d. %s\n", i+1, path)
		}
		fmt.Fprintf(writer, "\n")
	}

	if f.showDetails {
		fmt.Fprintf(writer, "Candidate Details:\n")
		fmt.Fprintf(writer, "==================\n\n")
		for _, match := range response.Matches {
			fmt.Fprintf(writer, "%s (%d tokens, %d candidates):\n",
				match.Path, match.TokenCount, len(match.Duplicates))
			for _, ref := range match.Duplicates {
				fmt.Fprintf(writer, "  -> %s\n", ref.Path)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	return nil
}

// formatAsCSV writes one record per grouped file
func (f *DedupFormatter) formatAsCSV(response *domain.DedupResponse, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := []string{"group_id", "path", "token_count", "candidates"}
	if err := csvWriter.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}

	matchByPath := make(map[string]*domain.DuplicateMatch, len(response.Matches))
	for i := range response.Matches {
		matchByPath[response.Matches[i].Path] = &response.Matches[i]
	}

	for _, group := range response.Groups {
		for _, path := range group.Paths {
			tokenCount, candidates := 0, 0
			if match, ok := matchByPath[path]; ok {
				tokenCount = match.TokenCount
				candidates = len(match.Duplicates)
			}
			record := []string{
				fmt.Sprintf("%d", group.ID),
				path,
				fmt.Sprintf("%d", tokenCount),
				fmt.Sprintf("%d", candidates),
			}
			if err := csvWriter.Write(record); err != nil {
				return domain.NewOutputError("failed to write CSV record", err)
			}
		}
	}

	return nil
}
