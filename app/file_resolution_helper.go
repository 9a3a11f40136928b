package app

import "github.com/kecaps/lsh/domain"

// ResolveFilePaths resolves the input paths for a detection run. If every
// path is already a regular file the list is returned as is, so callers that
// pre-collected files do not trigger a second directory walk. Otherwise the
// paths are expanded through the file reader with the given filters.
func ResolveFilePaths(
	fileReader domain.FileReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := true
	for _, path := range paths {
		exists, err := fileReader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileReader.CollectFiles(paths, recursive, includePatterns, excludePatterns)
}
