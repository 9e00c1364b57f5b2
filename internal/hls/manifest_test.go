package hls

import (
	"strings"
	"testing"
)

func TestMasterHeaderAndOrder(t *testing.T) {
	master := Master(Plan(1440, true))
	lines := strings.Split(strings.TrimRight(master, "\n"), "\n")

	if lines[0] != "#EXTM3U" || lines[1] != "#EXT-X-VERSION:3" {
		t.Fatalf("missing required header lines: %v", lines[:2])
	}
	want := []string{
		"#EXT-X-STREAM-INF:BANDWIDTH=6000000,RESOLUTION=1920x1080",
		"1080p_master.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720",
		"720p_master.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=854x480",
		"480p_master.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360",
		"360p_master.m3u8",
	}
	got := lines[2:]
	if len(got) != len(want) {
		t.Fatalf("expected %d body lines, got %d:\n%s", len(want), len(got), master)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestMasterOriginalOmitsResolution(t *testing.T) {
	master := Master(Plan(600, true))
	if !strings.Contains(master, "#EXT-X-STREAM-INF:BANDWIDTH=4000000\noriginal_master.m3u8") {
		t.Fatalf("original entry malformed:\n%s", master)
	}
	if strings.Contains(master, "BANDWIDTH=4000000,RESOLUTION") {
		t.Fatalf("original entry should carry no resolution tag:\n%s", master)
	}
}

func TestMasterOmitsUnproducedRenditions(t *testing.T) {
	plan := Plan(1440, true)
	// Drop 480p, as the orchestrator does when a lower rendition fails.
	produced := make([]Rendition, 0, len(plan))
	for _, r := range plan {
		if r.Label != "480p" {
			produced = append(produced, r)
		}
	}
	master := Master(produced)
	if strings.Contains(master, "480p") {
		t.Fatalf("master should omit the unproduced rendition:\n%s", master)
	}
	for _, label := range []string{"1080p", "720p", "360p"} {
		if !strings.Contains(master, MediaPlaylistName(label)) {
			t.Fatalf("master missing produced rendition %s:\n%s", label, master)
		}
	}
}

func TestBandwidthTable(t *testing.T) {
	want := map[string]int{
		"1080p":       6000000,
		"720p":        3000000,
		"480p":        1500000,
		"360p":        800000,
		LabelOriginal: 4000000,
	}
	for label, bw := range want {
		if got := Bandwidth(label); got != bw {
			t.Fatalf("bandwidth for %s: expected %d, got %d", label, bw, got)
		}
	}
}

func TestObjectKeyLayout(t *testing.T) {
	if got := ObjectKey("abc-123", "720p_master.m3u8"); got != "abc-123/hls/720p_master.m3u8" {
		t.Fatalf("unexpected object key %q", got)
	}
	if got := KeyPrefix("abc-123"); got != "abc-123/hls" {
		t.Fatalf("unexpected key prefix %q", got)
	}
}

func TestArtifactMetadata(t *testing.T) {
	if got := ContentTypeFor("master.m3u8"); got != "application/vnd.apple.mpegurl" {
		t.Fatalf("playlist content type %q", got)
	}
	if got := ContentTypeFor("720p_seg_004.ts"); got != "video/mp2t" {
		t.Fatalf("segment content type %q", got)
	}
	if got := CacheControlFor("master.m3u8"); got != "no-cache, max-age=10" {
		t.Fatalf("playlist cache control %q", got)
	}
	if got := CacheControlFor("720p_seg_004.ts"); got != "public, max-age=31536000, immutable" {
		t.Fatalf("segment cache control %q", got)
	}
}
