package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "vimeograb",
		Short: "VimeoGrab CLI - Vimeo video downloader",
		Long:  `A command-line interface for downloading Vimeo videos via yt-dlp.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(grabCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(doctorCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// fetchInfo posts a URL to the info endpoint and returns the parsed response
func fetchInfo(videoURL string) (map[string]interface{}, error) {
	payload := map[string]string{"url": videoURL}
	data, _ := json.Marshal(payload)

	resp, err := http.Post(serverURL+"/api/v1/info", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", errorMessage(body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// startDownload posts to the downloads endpoint and returns the created record
func startDownload(sessionID, quality, directory string) (map[string]interface{}, error) {
	payload := map[string]string{"session_id": sessionID}
	if quality != "" {
		payload["quality"] = quality
	}
	if directory != "" {
		payload["directory"] = directory
	}
	data, _ := json.Marshal(payload)

	resp, err := http.Post(serverURL+"/api/v1/downloads", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s", errorMessage(body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// followProgress streams progress events for a download over websocket until
// a terminal event arrives. Returns the final event type and file path.
func followProgress(downloadID string) (string, string, error) {
	wsURL, err := url.Parse(serverURL)
	if err != nil {
		return "", "", err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/api/v1/downloads/" + downloadID + "/progress"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to connect to progress stream: %w", err)
	}
	defer conn.Close()

	for {
		var event struct {
			Type     string `json:"type"`
			Progress *struct {
				Phase   string  `json:"phase"`
				Percent float64 `json:"percent"`
				Speed   string  `json:"speed"`
				ETA     string  `json:"eta"`
			} `json:"progress"`
			FilePath string `json:"file_path"`
			Error    string `json:"error"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			return "", "", fmt.Errorf("progress stream closed: %w", err)
		}

		switch event.Type {
		case "progress":
			if event.Progress == nil {
				continue
			}
			if event.Progress.Phase == "merging" {
				fmt.Printf("\rMerging video and audio...                              ")
			} else {
				fmt.Printf("\rDownloading: %5.1f%%  %s  ETA %s        ",
					event.Progress.Percent,
					strings.TrimSpace(event.Progress.Speed),
					strings.TrimSpace(event.Progress.ETA))
			}
		case "completed":
			fmt.Println()
			return event.Type, event.FilePath, nil
		case "failed":
			fmt.Println()
			return event.Type, "", fmt.Errorf("%s", event.Error)
		case "cancelled":
			fmt.Println()
			return event.Type, "", fmt.Errorf("download cancelled")
		}
	}
}

var grabCmd = &cobra.Command{
	Use:   "grab [url]",
	Short: "Fetch info and download a video in one step",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		quality, _ := cmd.Flags().GetString("quality")
		directory, _ := cmd.Flags().GetString("dir")

		fmt.Println("Fetching video information...")
		info, err := fetchInfo(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Title: %s\n", info["title"])
		if source, ok := info["auth_source"].(string); ok && source != "" {
			fmt.Printf("Credentials: %s\n", source)
		}

		sessionID, _ := info["session_id"].(string)
		download, err := startDownload(sessionID, quality, directory)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		downloadID, _ := download["id"].(string)
		_, filePath, err := followProgress(downloadID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Download complete: %s\n", filePath)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Fetch video information and available qualities",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		info, err := fetchInfo(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Title:      %s\n", info["title"])
		fmt.Printf("Session ID: %s\n", info["session_id"])
		if source, ok := info["auth_source"].(string); ok && source != "" {
			fmt.Printf("Credentials: %s\n", source)
		}
		if relaxed, ok := info["transport_relaxed"].(bool); ok && relaxed {
			fmt.Println("Note: certificate verification disabled for this session")
		}

		fmt.Println("Available qualities:")
		if qualities, ok := info["qualities"].([]interface{}); ok {
			for _, q := range qualities {
				if opt, ok := q.(map[string]interface{}); ok {
					fmt.Printf("  %s\n", opt["label"])
				}
			}
		}
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [session-id]",
	Short: "Download a previously fetched video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		quality, _ := cmd.Flags().GetString("quality")
		directory, _ := cmd.Flags().GetString("dir")

		download, err := startDownload(args[0], quality, directory)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		downloadID, _ := download["id"].(string)
		_, filePath, err := followProgress(downloadID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Download complete: %s\n", filePath)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List download history",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		url := serverURL + "/api/v1/downloads"
		if status != "" {
			url += "?status=" + status
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var downloads []map[string]interface{}
		json.Unmarshal(body, &downloads)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tQUALITY\tSTATUS\tCREATED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(stringField(d, "id"), 8),
				truncate(stringField(d, "title"), 40),
				d["quality"],
				d["status"],
				d["created_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/downloads/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:      %v\n", stats["total"])
		fmt.Printf("  Queued:     %v\n", stats["queued"])
		fmt.Printf("  Processing: %v\n", stats["processing"])
		fmt.Printf("  Completed:  %v\n", stats["completed"])
		fmt.Printf("  Failed:     %v\n", stats["failed"])
		fmt.Printf("  Cancelled:  %v\n", stats["cancelled"])
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Get(serverURL + "/api/v1/downloads/" + id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var download map[string]interface{}
		json.Unmarshal(body, &download)

		fmt.Printf("Download Details:\n")
		fmt.Printf("  ID:       %s\n", download["id"])
		fmt.Printf("  Title:    %s\n", download["title"])
		fmt.Printf("  URL:      %s\n", download["url"])
		fmt.Printf("  Quality:  %s\n", download["quality"])
		fmt.Printf("  Status:   %s\n", download["status"])
		fmt.Printf("  Created:  %s\n", download["created_at"])
		if source, ok := download["auth_source"].(string); ok && source != "" {
			fmt.Printf("  Auth:     %s\n", source)
		}
		if download["file_path"] != nil && download["file_path"] != "" {
			fmt.Printf("  File:     %s\n", download["file_path"])
		}
		if msg, ok := download["error_message"].(string); ok && msg != "" {
			fmt.Printf("  Error:    %s\n", msg)
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel an active download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Post(serverURL+"/api/v1/downloads/"+id+"/cancel", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(body))
			os.Exit(1)
		}
		fmt.Println("Cancellation requested")
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check server and tool availability",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		resp, err := http.Get(serverURL + "/health")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server:  unreachable (%v)\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var health map[string]interface{}
		json.Unmarshal(body, &health)
		fmt.Printf("Server:  %v (version %v)\n", health["status"], health["version"])

		readyResp, err := http.Get(serverURL + "/ready")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer readyResp.Body.Close()

		readyBody, _ := io.ReadAll(readyResp.Body)
		var ready map[string]interface{}
		json.Unmarshal(readyBody, &ready)

		if readyResp.StatusCode != http.StatusOK {
			fmt.Printf("yt-dlp:  missing (%v)\n", ready["reason"])
			os.Exit(1)
		}
		fmt.Println("yt-dlp:  found")
		if ffmpeg, ok := ready["ffmpeg"].(bool); ok && ffmpeg {
			fmt.Println("ffmpeg:  found")
		} else {
			fmt.Println("ffmpeg:  missing (merged downloads may be unavailable)")
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (session, error, download)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		category := args[0]
		limit, _ := cmd.Flags().GetInt("limit")
		date, _ := cmd.Flags().GetString("date")

		url := fmt.Sprintf("%s/api/v1/logs/%s?limit=%d", serverURL, category, limit)
		if date != "" {
			url += "&date=" + date
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(body))
			os.Exit(1)
		}

		var result struct {
			Entries []struct {
				Timestamp string `json:"timestamp"`
				Level     string `json:"level"`
				Message   string `json:"message"`
			} `json:"entries"`
		}
		json.Unmarshal(body, &result)

		for _, entry := range result.Entries {
			if entry.Timestamp != "" {
				fmt.Printf("%s [%s] %s\n", entry.Timestamp, entry.Level, entry.Message)
			} else {
				fmt.Println(entry.Message)
			}
		}
	},
}

func init() {
	grabCmd.Flags().StringP("quality", "q", "best", "Quality (best, worst, or height like 1080)")
	grabCmd.Flags().StringP("dir", "d", "", "Download directory")
	downloadCmd.Flags().StringP("quality", "q", "best", "Quality (best, worst, or height like 1080)")
	downloadCmd.Flags().StringP("dir", "d", "", "Download directory")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	logsCmd.Flags().IntP("limit", "n", 100, "Number of entries to show")
	logsCmd.Flags().String("date", "", "Date (YYYY-MM-DD), defaults to today")
}

// errorMessage extracts the error field from a JSON error body
func errorMessage(body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg, ok := parsed["error"].(string); ok {
			return msg
		}
	}
	return string(body)
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
