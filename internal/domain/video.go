package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// VideoFormat is a single downloadable format reported by the extraction tool
type VideoFormat struct {
	FormatID string `json:"format_id"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Ext      string `json:"ext"`
}

// HasVideo reports whether the format carries a video stream
func (f VideoFormat) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// VideoInfo is the structured metadata returned by an information fetch
type VideoInfo struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Formats  []VideoFormat `json:"formats"`
}

// QualityOption is one selectable quality. Value is "best", "worst" or a
// numeric height as a string; Label is what a front-end shows.
type QualityOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// QualityOptions builds the selectable quality list from the reported
// formats: unique video heights, highest first, with "best" prepended and
// "worst" appended.
func (v *VideoInfo) QualityOptions() []QualityOption {
	seen := make(map[int]bool)
	heights := make([]int, 0, len(v.Formats))
	for _, f := range v.Formats {
		if !f.HasVideo() || f.Height <= 0 || seen[f.Height] {
			continue
		}
		seen[f.Height] = true
		heights = append(heights, f.Height)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	options := make([]QualityOption, 0, len(heights)+2)
	options = append(options, QualityOption{Value: "best", Label: "Best Quality"})
	for _, h := range heights {
		options = append(options, QualityOption{
			Value: fmt.Sprintf("%d", h),
			Label: fmt.Sprintf("%dp", h),
		})
	}
	options = append(options, QualityOption{Value: "worst", Label: "Worst Quality"})
	return options
}

// ValidateURL checks that the URL parses and belongs to the supported host
func ValidateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if parsed.Host == "" || !strings.Contains(strings.ToLower(parsed.Host), "vimeo") {
		return ErrUnsupportedURL
	}
	return nil
}
