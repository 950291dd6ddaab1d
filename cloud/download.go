package cloud

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ReadDataLink resolves a data file to a download link
func (c *Client) ReadDataLink(ctx context.Context, req ReadDataRequest) (string, error) {
	if req.Format == "" {
		req.Format = "link"
	}
	resp, err := call[DataLinkResponse](ctx, c, "ReadDataLink", "data/read", req)
	if err != nil {
		return "", err
	}
	return resp.Link, nil
}

// Download fetches rawURL through a pooled transport. It blocks while every
// pooled transport is borrowed and returns an empty slice on any failure.
func (c *Client) Download(ctx context.Context, rawURL string) []byte {
	client, err := c.pool.Borrow(ctx)
	if err != nil {
		c.logger.Error().Err(err).Str("url", rawURL).Msg("Failed to acquire download transport")
		return []byte{}
	}
	defer c.pool.Return(client)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("url", rawURL).Msg("Failed to create download request")
		return []byte{}
	}
	req.Header.Set("User-Agent", c.conn.userAgent)

	// Credentials only go to the API host, never to third-party links
	if c.sameHost(req.URL) {
		c.conn.creds.Apply(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", rawURL).Msg("Download failed")
		return []byte{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Str("url", rawURL).Msg("Download returned error status")
		return []byte{}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).Str("url", rawURL).Msg("Failed to read download body")
		return []byte{}
	}

	c.logger.Debug().Str("url", rawURL).Int("bytes", len(data)).Msg("Downloaded content")
	return data
}

// DownloadString is Download returning text
func (c *Client) DownloadString(ctx context.Context, rawURL string) string {
	return string(c.Download(ctx, rawURL))
}

// DownloadData resolves a data file link and downloads it
func (c *Client) DownloadData(ctx context.Context, req ReadDataRequest) []byte {
	link, err := c.ReadDataLink(ctx, req)
	if err != nil {
		c.logger.Error().Err(err).Str("file", req.FilePath).Msg("Failed to resolve data link")
		return []byte{}
	}
	if link == "" {
		c.logger.Error().Str("file", req.FilePath).Msg("Data link is empty")
		return []byte{}
	}
	return c.Download(ctx, link)
}

// DownloadAll downloads urls concurrently; concurrency is capped by the
// pool size. Failed downloads map to empty slices.
func (c *Client) DownloadAll(ctx context.Context, urls []string) map[string][]byte {
	results := make(map[string][]byte, len(urls))
	if len(urls) == 0 {
		return results
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.pool.Size())

	var mu sync.Mutex
	for _, u := range urls {
		g.Go(func() error {
			data := c.Download(ctx, u)

			mu.Lock()
			results[u] = data
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return results
}

func (c *Client) sameHost(u *url.URL) bool {
	base, err := url.Parse(c.conn.baseURL)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}
