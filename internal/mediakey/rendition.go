package mediakey

import (
	"strings"

	"github.com/upcastmedia/vodpipe/internal/apperr"
)

// Quality is a rendition quality tier. Resolution and bitrate are pure
// functions of the tier, never of input content.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityUltra  Quality = "ultra"
)

// Qualities lists all tiers in ascending order.
func Qualities() []Quality {
	return []Quality{QualityLow, QualityMedium, QualityHigh, QualityUltra}
}

// ParseQuality resolves a quality tier name.
func ParseQuality(s string) (Quality, error) {
	switch Quality(strings.ToLower(s)) {
	case QualityLow, QualityMedium, QualityHigh, QualityUltra:
		return Quality(strings.ToLower(s)), nil
	default:
		return "", apperr.Newf(apperr.InvalidArgument, "invalid quality %q", s)
	}
}

// Resolution is an output frame size in pixels.
type Resolution struct {
	Width  int64
	Height int64
}

// Bitrate is a target/max video bitrate pair in bits per second.
type Bitrate struct {
	Target int64
	Max    int64
}

var resolutions = map[Quality]Resolution{
	QualityLow:    {640, 360},
	QualityMedium: {1280, 720},
	QualityHigh:   {1920, 1080},
	QualityUltra:  {3840, 2160},
}

var bitrates = map[Quality]Bitrate{
	QualityLow:    {1_000_000, 1_200_000},
	QualityMedium: {2_500_000, 3_000_000},
	QualityHigh:   {5_000_000, 6_000_000},
	QualityUltra:  {8_000_000, 10_000_000},
}

// Resolution returns the fixed frame size for the tier.
func (q Quality) Resolution() Resolution { return resolutions[q] }

// Bitrate returns the fixed bitrate pair for the tier.
func (q Quality) Bitrate() Bitrate { return bitrates[q] }

// Format is a rendition container format. DASH is accepted by the request
// shape but rejected at submission; see the orchestrator.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatHLS  Format = "hls"
	FormatDASH Format = "dash"
)

// ParseFormat resolves a rendition format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatMP4, FormatHLS, FormatDASH:
		return Format(strings.ToLower(s)), nil
	default:
		return "", apperr.Newf(apperr.InvalidArgument, "invalid format %q", s)
	}
}

// RenditionFilter selects which rendition formats to sign URLs for.
type RenditionFilter string

const (
	FilterMP4  RenditionFilter = "mp4"
	FilterHLS  RenditionFilter = "hls"
	FilterBoth RenditionFilter = "both"
)

// ParseRenditionFilter resolves a rendition filter name.
func ParseRenditionFilter(s string) (RenditionFilter, error) {
	switch RenditionFilter(strings.ToLower(s)) {
	case FilterMP4, FilterHLS, FilterBoth:
		return RenditionFilter(strings.ToLower(s)), nil
	default:
		return "", apperr.Newf(apperr.InvalidArgument, "invalid format filter %q", s)
	}
}

// IncludesMP4 reports whether the filter selects MP4 renditions.
func (f RenditionFilter) IncludesMP4() bool { return f == FilterMP4 || f == FilterBoth }

// IncludesHLS reports whether the filter selects HLS renditions.
func (f RenditionFilter) IncludesHLS() bool { return f == FilterHLS || f == FilterBoth }

// RenditionBase derives the output location for one (format, quality)
// rendition of inputKey: the extension-stripped key with a -<format>-<quality>
// suffix. This is the single derivation both the transcoding orchestrator and
// the delivery signer consume; keep it that way.
func RenditionBase(inputKey string, f Format, q Quality) string {
	return StripExtension(inputKey) + "-" + string(f) + "-" + string(q)
}

// MP4ObjectKey is the object key of a finished MP4 rendition. The transcoding
// engine appends the container extension to the file-group destination.
func MP4ObjectKey(inputKey string, q Quality) string {
	return RenditionBase(inputKey, FormatMP4, q) + ".mp4"
}

// HLSPlaylistKey is the object key of a finished HLS rendition playlist.
func HLSPlaylistKey(inputKey string, q Quality) string {
	return RenditionBase(inputKey, FormatHLS, q) + "/index.m3u8"
}
