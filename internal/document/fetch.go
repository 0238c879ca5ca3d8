package document

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// fetchToTemp downloads a PDF URL to a temporary file. A single attempt, no
// retries: a blocked or slow host must not stall the pipeline. The caller
// removes the file via the returned cleanup regardless of extraction outcome.
func fetchToTemp(url string, timeout time.Duration) (path string, cleanup func(), err error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return "", nil, fmt.Errorf("fetch pdf: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetch pdf: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "ct-doc-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}
