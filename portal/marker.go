package portal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// writeMarker leaves a small file behind so a CI job can tell the browser
// step ran, whether or not it produced anything.
func writeMarker(path string, res *Result, finished time.Time) error {
	status := "success"
	if !res.Succeeded() {
		status = "failed"
	}

	var b strings.Builder
	b.WriteString("browser step completed\n")
	fmt.Fprintf(&b, "run_id: %s\n", res.RunID)
	fmt.Fprintf(&b, "status: %s\n", status)
	fmt.Fprintf(&b, "stage: %s\n", res.Stage)
	fmt.Fprintf(&b, "finished: %s\n", finished.UTC().Format(time.RFC3339))
	if res.Err != nil {
		fmt.Fprintf(&b, "error: %s\n", strings.ReplaceAll(res.Err.Error(), "\n", " "))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
