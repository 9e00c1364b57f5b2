package hls

import (
	"fmt"
	"path"
	"strings"
)

// MasterPlaylistName is the filename of the top-level adaptive playlist.
const MasterPlaylistName = "master.m3u8"

// Declared stream bandwidths by rendition label. These are fixed tags for
// adaptive switching, not measured bitrates.
var bandwidths = map[string]int{
	"1080p":       6000000,
	"720p":        3000000,
	"480p":        1500000,
	"360p":        800000,
	LabelOriginal: 4000000,
}

// Declared resolutions by label. The original remux carries no resolution
// tag because its dimensions are whatever the source had.
var resolutions = map[string]string{
	"1080p": "1920x1080",
	"720p":  "1280x720",
	"480p":  "854x480",
	"360p":  "640x360",
}

// Bandwidth returns the declared bandwidth tag for a rendition label.
func Bandwidth(label string) int {
	return bandwidths[label]
}

// Master builds the top-level playlist text from the renditions that were
// actually produced, in the given (descending-height) order. Each entry is a
// stream declaration line followed by the rendition's playlist filename.
func Master(produced []Rendition) string {
	lines := []string{"#EXTM3U", "#EXT-X-VERSION:3"}
	for _, r := range produced {
		decl := fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d", bandwidths[r.Label])
		if res, ok := resolutions[r.Label]; ok {
			decl += ",RESOLUTION=" + res
		}
		lines = append(lines, decl, MediaPlaylistName(r.Label))
	}
	return strings.Join(lines, "\n") + "\n"
}

// ObjectKey returns the object-storage key for a produced artifact:
// {jobId}/hls/{filename}.
func ObjectKey(jobID, filename string) string {
	return path.Join(jobID, "hls", filename)
}

// KeyPrefix returns the object-storage prefix holding all of a job's
// artifacts.
func KeyPrefix(jobID string) string {
	return path.Join(jobID, "hls")
}

// ContentTypeFor returns the MIME type for an artifact filename.
func ContentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(name, ".ts"):
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// CacheControlFor returns the cache policy for an artifact filename:
// playlists may be replaced by a retry and get a short lifetime, segments
// are content-stable and cached as immutable.
func CacheControlFor(name string) string {
	if strings.HasSuffix(name, ".m3u8") {
		return "no-cache, max-age=10"
	}
	return "public, max-age=31536000, immutable"
}
