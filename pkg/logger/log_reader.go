package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Category  string                 `json:"category"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader reads category log files from the logs directory. Session and
// error files hold one JSON object per line; download files hold raw tool
// output and are surfaced as plain-text entries.
type LogReader struct {
	logsDir string
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{
		logsDir: logsDir,
	}
}

// ValidCategory reports whether a category name maps to a known log file set
func ValidCategory(name string) bool {
	switch LogCategory(name) {
	case CategorySession, CategoryError, CategoryDownload:
		return true
	}
	return false
}

// GetLogPath returns the path to a category log file for a specific date
func (lr *LogReader) GetLogPath(category LogCategory, date time.Time) string {
	dateStr := date.Format("20060102")
	filename := fmt.Sprintf("%s-%s.log", category, dateStr)
	return filepath.Join(lr.logsDir, filename)
}

// ListDates returns the dates (yyyymmdd) that have a log file for a category,
// newest first
func (lr *LogReader) ListDates(category LogCategory) ([]string, error) {
	pattern := filepath.Join(lr.logsDir, fmt.Sprintf("%s-*.log", category))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	prefix := string(category) + "-"
	var dates []string
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), ".log")
		dates = append(dates, strings.TrimPrefix(name, prefix))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// ReadLogs reads log entries from a category log file
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	logPath := lr.GetLogPath(category, date)

	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil // Return empty slice if file doesn't exist
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Get last N lines if limit is specified
	startIdx := 0
	if limit > 0 && len(lines) > limit {
		startIdx = len(lines) - limit
	}

	var entries []LogEntry
	for i := startIdx; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		entries = append(entries, parseLogLine(category, line))
	}

	return entries, nil
}

// ReadTodayLogs reads today's log entries for a category
func (lr *LogReader) ReadTodayLogs(category LogCategory, limit int) ([]LogEntry, error) {
	return lr.ReadLogs(category, time.Now(), limit)
}

// SearchLogs searches for log entries matching a query
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(category, date, 0) // Read all
	if err != nil {
		return nil, err
	}

	var filtered []LogEntry
	query = strings.ToLower(query)

	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Message), query) ||
			strings.Contains(strings.ToLower(entry.Level), query) {
			filtered = append(filtered, entry)
		}
	}

	// Apply limit
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	return filtered, nil
}

// parseLogLine decodes a JSON entry, falling back to a plain-text entry for
// raw tool output
func parseLogLine(category LogCategory, line string) LogEntry {
	if category != CategoryDownload {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err == nil {
			entry := LogEntry{Category: string(category), Fields: raw}
			if ts, ok := raw["ts"].(string); ok {
				entry.Timestamp = ts
				delete(raw, "ts")
			}
			if level, ok := raw["level"].(string); ok {
				entry.Level = level
				delete(raw, "level")
			}
			if msg, ok := raw["msg"].(string); ok {
				entry.Message = msg
				delete(raw, "msg")
			}
			if len(raw) == 0 {
				entry.Fields = nil
			}
			return entry
		}
	}

	return LogEntry{
		Level:    "info",
		Message:  line,
		Category: string(category),
	}
}
