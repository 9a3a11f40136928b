package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kecaps/lsh/domain"
)

// AnalyzeFormatter formats analysis reports. The text format is the classic
// five-column detection table; the structured formats carry the full
// response including the config echo.
type AnalyzeFormatter struct{}

// NewAnalyzeFormatter creates a new analyze formatter
func NewAnalyzeFormatter() *AnalyzeFormatter {
	return &AnalyzeFormatter{}
}

// Format formats the analysis response according to the specified format
func (f *AnalyzeFormatter) Format(response *domain.AnalyzeResponse, format domain.OutputFormat) (string, error) {
	var buf bytes.Buffer
	if err := f.Write(response, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write writes the formatted output to the writer
func (f *AnalyzeFormatter) Write(response *domain.AnalyzeResponse, format domain.OutputFormat, writer io.Writer) error {
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

// formatAsText renders the detection table: one row per similarity bin and
// a totals row, with the empirical detection fraction next to the
// theoretical S-curve value.
func (f *AnalyzeFormatter) formatAsText(response *domain.AnalyzeResponse, writer io.Writer) error {
	headerFmt := strings.Repeat("| %12s ", 5) + "|\n"
	if _, err := fmt.Fprintf(writer, headerFmt,
		"Similarity", "LSH Count", "Total Count", "% in LSH", "Theoretical %"); err != nil {
		return domain.NewOutputError("failed to write report", err)
	}
	fmt.Fprintln(writer, tableSeparator("-"))

	for _, bin := range response.Bins {
		fmt.Fprintf(writer, "| %12.2f | %12d | %12d | %12.4f | %12.4f |\n",
			bin.Similarity, bin.LSHCount, bin.TotalCount,
			bin.EmpiricalFraction, bin.TheoreticalFraction)
	}

	fmt.Fprintln(writer, tableSeparator("="))
	totals := response.Totals
	fmt.Fprintf(writer, "| %12s | %12d | %12d | %12.4f | %12.4f |\n",
		"Total", totals.LSHCount, totals.TotalCount,
		totals.EmpiricalFraction, totals.TheoreticalFraction)

	return nil
}

// tableSeparator builds a five-cell separator line from the given rune.
func tableSeparator(c string) string {
	cell := strings.Repeat(c, 14)
	return "|" + strings.Repeat(cell+"+", 4) + cell + "|"
}

// formatAsCSV writes one record per similarity bin. The totals row is
// omitted since it is derivable from the bins.
func (f *AnalyzeFormatter) formatAsCSV(response *domain.AnalyzeResponse, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := []string{"similarity", "lsh_count", "total_count", "empirical_fraction", "theoretical_fraction"}
	if err := csvWriter.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}

	for _, bin := range response.Bins {
		record := []string{
			fmt.Sprintf("%.2f", bin.Similarity),
			fmt.Sprintf("%d", bin.LSHCount),
			fmt.Sprintf("%d", bin.TotalCount),
			fmt.Sprintf("%.6f", bin.EmpiricalFraction),
			fmt.Sprintf("%.6f", bin.TheoreticalFraction),
		}
		if err := csvWriter.Write(record); err != nil {
			return domain.NewOutputError("failed to write CSV record", err)
		}
	}

	return nil
}
