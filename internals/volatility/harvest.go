package volatility

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"MemForge/internals/worker"
)

// HarvestGlob copies every file in sourceDir matching pattern into a managed
// output file keeping the original base filename as display name. Repeated
// calls against an unchanged directory produce the same records again; there
// is no cross-call deduplication.
func HarvestGlob(sourceDir, pattern, outputPath string) ([]worker.OutputFile, error) {
	matches, err := filepath.Glob(filepath.Join(sourceDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var harvested []worker.OutputFile
	for _, match := range matches {
		outputFile := worker.CreateOutputFile(outputPath, filepath.Base(match), "")
		if err := copyFile(match, outputFile.Path); err != nil {
			return nil, err
		}
		harvested = append(harvested, outputFile)
	}
	return harvested, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
