package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/cloud"
)

var (
	dataOut string
	dataDir string
)

// dataCmd groups the data download operations
var dataCmd = &cobra.Command{
	Use:               "data",
	Short:             "Resolve and download data files",
	PersistentPreRunE: withClient,
}

var dataLinkCmd = &cobra.Command{
	Use:   "link FILE_PATH",
	Short: "Resolve a data file to its download link",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataLink,
}

var dataDownloadCmd = &cobra.Command{
	Use:   "download FILE_PATH",
	Short: "Resolve and download a data file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataDownload,
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch URL...",
	Short: "Download URLs concurrently through the transport pool",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDataFetch,
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataLinkCmd, dataDownloadCmd, dataFetchCmd)

	dataDownloadCmd.Flags().StringVar(&dataOut, "out", "", "write to this file instead of stdout")
	dataFetchCmd.Flags().StringVar(&dataDir, "dir", ".", "directory to write downloaded files to")
}

func runDataLink(cmd *cobra.Command, args []string) error {
	link, err := client.ReadDataLink(cmd.Context(), cloud.ReadDataRequest{Format: "link", FilePath: args[0]})
	if err != nil {
		return err
	}
	return render(map[string]string{"filePath": args[0], "link": link}, func() string { return link + "\n" })
}

func runDataDownload(cmd *cobra.Command, args []string) error {
	data := client.DownloadData(cmd.Context(), cloud.ReadDataRequest{Format: "link", FilePath: args[0]})
	if len(data) == 0 {
		return fmt.Errorf("download of %s returned no data", args[0])
	}

	if dataOut == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(dataOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dataOut, err)
	}
	logger.Info().Str("path", dataOut).Int("bytes", len(data)).Msg("Data downloaded")
	return nil
}

// fetchResult is the outcome of one URL of data fetch
type fetchResult struct {
	URL   string `json:"url"`
	Path  string `json:"path,omitempty"`
	Bytes int    `json:"bytes"`
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dataDir, err)
	}

	downloads := client.DownloadAll(cmd.Context(), args)

	results := make([]fetchResult, 0, len(downloads))
	var failed int
	for u, data := range downloads {
		res := fetchResult{URL: u, Bytes: len(data)}
		if len(data) == 0 {
			failed++
			results = append(results, res)
			continue
		}

		res.Path = filepath.Join(dataDir, fileNameFor(u))
		if err := os.WriteFile(res.Path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", res.Path, err)
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].URL < results[j].URL })

	if err := render(results, func() string { return formatFetch(results) }); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(args))
	}
	return nil
}

// fileNameFor derives a local file name from the last path segment of rawURL
func fileNameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return "download"
	}
	return path.Base(u.Path)
}

func formatFetch(results []fetchResult) string {
	var sb strings.Builder
	for _, r := range results {
		if r.Path == "" {
			fmt.Fprintf(&sb, "✗ %s: failed\n", r.URL)
			continue
		}
		fmt.Fprintf(&sb, "✓ %s -> %s (%d bytes)\n", r.URL, r.Path, r.Bytes)
	}
	return sb.String()
}
