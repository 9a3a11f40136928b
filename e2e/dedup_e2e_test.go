package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestDedupE2EBasic tests basic duplicate detection via the built binary
func TestDedupE2EBasic(t *testing.T) {
	binaryPath := buildLshBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	duplicate := "it was the best of times it was the worst of times it was the age of wisdom\n"
	createTestTextFile(t, testDir, "a.txt", duplicate)
	createTestTextFile(t, testDir, "b.txt", duplicate)
	createTestTextFile(t, testDir, "c.txt", "call me ishmael some years ago never mind how long precisely\n")

	cmd := exec.Command(binaryPath, "dedup", "--no-progress", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}

	output := stdout.String()

	if !strings.Contains(output, "Files scanned: 3") {
		t.Errorf("Output should report 3 scanned files, got: %s", output)
	}
	if !strings.Contains(output, "Duplicate groups: 1") {
		t.Errorf("Output should report one duplicate group, got: %s", output)
	}
	if !strings.Contains(output, "a.txt") || !strings.Contains(output, "b.txt") {
		t.Errorf("Output should list the duplicate files, got: %s", output)
	}
	if strings.Contains(output, "Candidate Details:") {
		t.Error("Details section should only appear with --details")
	}
}

// TestDedupE2EDetails tests the --details flag
func TestDedupE2EDetails(t *testing.T) {
	binaryPath := buildLshBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	duplicate := "all happy families are alike each unhappy family is unhappy in its own way\n"
	createTestTextFile(t, testDir, "a.txt", duplicate)
	createTestTextFile(t, testDir, "b.txt", duplicate)

	cmd := exec.Command(binaryPath, "dedup", "--details", "--no-progress", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}

	if !strings.Contains(stdout.String(), "Candidate Details:") {
		t.Errorf("Output should contain candidate details, got: %s", stdout.String())
	}
}

// TestDedupE2EJSONOutput tests JSON report file generation
func TestDedupE2EJSONOutput(t *testing.T) {
	binaryPath := buildLshBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	duplicate := "a screaming comes across the sky it has happened before but there is nothing to compare it to now\n"
	createTestTextFile(t, testDir, "a.txt", duplicate)
	createTestTextFile(t, testDir, "b.txt", duplicate)

	// Direct report output into a separate temp directory
	outputDir := t.TempDir()
	createTestConfigFile(t, testDir, outputDir)

	cmd := exec.Command(binaryPath, "dedup", "--json", "--no-progress", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}

	// Find the generated JSON file in outputDir
	files, err := filepath.Glob(filepath.Join(outputDir, "dedup_*.json"))
	if err != nil || len(files) == 0 {
		allFiles, _ := os.ReadDir(outputDir)
		var fileNames []string
		for _, f := range allFiles {
			fileNames = append(fileNames, f.Name())
		}
		t.Fatalf("No JSON file generated in %s, files present: %v", outputDir, fileNames)
	}

	jsonContent, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("Failed to read JSON file: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonContent, &result); err != nil {
		t.Fatalf("Invalid JSON output: %v\nContent: %s", err, string(jsonContent))
	}

	if _, ok := result["groups"]; !ok {
		t.Error("JSON output should contain 'groups' field")
	}
	if _, ok := result["matches"]; !ok {
		t.Error("JSON output should contain 'matches' field")
	}
	if _, ok := result["summary"]; !ok {
		t.Error("JSON output should contain 'summary' field")
	}
}

// TestDedupE2EFlags tests various command line flags
func TestDedupE2EFlags(t *testing.T) {
	binaryPath := buildLshBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	createTestTextFile(t, testDir, "one.txt", "the cat sat on the mat and looked out at the rain\n")
	createTestTextFile(t, testDir, "two.txt", "the dog lay by the door and barked at the post\n")

	tests := []struct {
		name       string
		args       []string
		shouldPass bool
	}{
		{
			name:       "help flag",
			args:       []string{"dedup", "--help"},
			shouldPass: true,
		},
		{
			name:       "sort by size",
			args:       []string{"dedup", "--sort", "size", "--no-progress", testDir},
			shouldPass: true,
		},
		{
			name:       "min tokens filter",
			args:       []string{"dedup", "--min-tokens", "5", "--no-progress", testDir},
			shouldPass: true,
		},
		{
			name:       "explicit banding",
			args:       []string{"dedup", "-b", "10", "-r", "10", "--no-progress", testDir},
			shouldPass: true,
		},
		{
			name:       "invalid sort criteria",
			args:       []string{"dedup", "--sort", "color", "--no-progress", testDir},
			shouldPass: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()

			if tt.shouldPass && err != nil {
				t.Errorf("Command should pass but failed: %v\nStderr: %s", err, stderr.String())
			} else if !tt.shouldPass && err == nil {
				t.Error("Command should fail but passed")
			}
		})
	}
}

// TestDedupE2EErrorHandling tests error scenarios
func TestDedupE2EErrorHandling(t *testing.T) {
	binaryPath := buildLshBinary(t)
	defer os.Remove(binaryPath)

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "nonexistent path",
			args: []string{"dedup", "--no-progress", "/nonexistent/path"},
		},
		{
			name: "directory with no text files",
			args: []string{"dedup", "--no-progress", "EMPTY_DIR_PLACEHOLDER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := make([]string, len(tt.args))
			copy(args, tt.args)
			for i, arg := range args {
				if arg == "EMPTY_DIR_PLACEHOLDER" {
					args[i] = t.TempDir()
				}
			}

			cmd := exec.Command(binaryPath, args...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()
			if err == nil {
				t.Error("Command should fail but passed")
			}

			// Should have meaningful error message
			output := stderr.String() + stdout.String()
			if len(output) == 0 {
				t.Error("Should provide error message")
			}
		})
	}
}

// Helper functions

func buildLshBinary(t *testing.T) string {
	t.Helper()

	// Create temporary binary
	binaryPath := filepath.Join(t.TempDir(), "lsh")

	// Build the binary from the project root (one level up from e2e directory)
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/lsh")

	// Set working directory to project root
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}
	cmd.Dir = projectRoot

	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build lsh binary: %v", err)
	}

	return binaryPath
}

func createTestTextFile(t *testing.T, dir, filename, content string) {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filename, err)
	}
}
