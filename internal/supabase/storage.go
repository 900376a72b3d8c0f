package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stephankoppes/book-nest/internal/domain"
)

var _ domain.CoverStore = &Client{}

// UploadCover stores binary cover content under the given path in the
// cover bucket.
func (c *Client) UploadCover(ctx context.Context, path, contentType string, content io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/storage/v1/object/"+c.coverBucket+"/"+path, content)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// PublicCoverURL resolves the public URL of an uploaded cover.
func (c *Client) PublicCoverURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.coverBucket, path)
}
