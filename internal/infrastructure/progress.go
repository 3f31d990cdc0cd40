package infrastructure

import (
	"regexp"
	"strconv"
	"strings"
)

// ProgressTemplate makes the tool emit transfer progress as
// percent|speed|eta, one update per line.
const ProgressTemplate = "%(progress._percent_str)s|%(progress._speed_str)s|%(progress._eta_str)s"

var (
	mergingRe     = regexp.MustCompile(`Merging formats into\s*"(.+?)"`)
	destinationRe = regexp.MustCompile(`Destination:\s*(.+)$`)
)

// FormatSelector maps a quality choice to the tool's format selector.
// "best" and "worst" pick the extremes; a numeric height H caps the video
// stream at that height.
func FormatSelector(quality string) string {
	switch quality {
	case "best", "":
		return "bestvideo+bestaudio/best"
	case "worst":
		return "worstvideo+worstaudio/worst"
	default:
		return "bestvideo[height<=" + quality + "]+bestaudio/best[height<=" + quality + "]"
	}
}

// IsMergePhaseLine reports whether the line signals the local remux/merge
// phase, during which transfer progress no longer applies.
func IsMergePhaseLine(line string) bool {
	return strings.Contains(line, "[ffmpeg]") ||
		strings.Contains(line, "Merger") ||
		strings.Contains(line, "Post-process")
}

// ParseProgressLine splits a percent|speed|eta template line. Lines with
// fewer than two separators are not progress updates.
func ParseProgressLine(line string) (percent float64, speed, eta string, ok bool) {
	if strings.Count(line, "|") < 2 {
		return 0, "", "", false
	}
	parts := strings.SplitN(line, "|", 3)
	percentStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[0]), "%"))
	percent, err := strconv.ParseFloat(percentStr, 64)
	if err != nil {
		percent = -1
	}
	return percent, strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), true
}

// ParseMergeDestination extracts the output path from a
// `Merging formats into "<path>"` line
func ParseMergeDestination(line string) (string, bool) {
	if m := mergingRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// ParseDestination extracts the output path from a `Destination: <path>` line
func ParseDestination(line string) (string, bool) {
	if m := destinationRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}
