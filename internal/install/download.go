package install

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-retryablehttp"
)

// fetchToFile downloads url into dest with retries on transient failures.
func fetchToFile(url, dest string) error {
	client := retryablehttp.NewClient()
	client.Logger = nil

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return f.Close()
}
