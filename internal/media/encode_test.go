package media

import (
	"reflect"
	"testing"

	"github.com/strelitziathe1/anime/internal/hls"
)

func TestEncodeArgsTranscode(t *testing.T) {
	r := hls.Rendition{Label: "720p", Height: 720, CRF: 23, AudioBitrate: "96k", Mode: hls.ModeTranscode}
	got := encodeArgs("/work/j1/source", r, "/work/j1/hls")
	want := []string{
		"-y", "-i", "/work/j1/source",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-vf", "scale=-2:720",
		"-c:a", "aac",
		"-b:a", "96k",
		"-g", "48",
		"-sc_threshold", "0",
		"-f", "hls",
		"-hls_time", "6",
		"-hls_segment_filename", "/work/j1/hls/720p_seg_%03d.ts",
		"/work/j1/hls/720p_master.m3u8",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("transcode args mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEncodeArgsCopy(t *testing.T) {
	r := hls.Rendition{Label: "original", Height: 900, Mode: hls.ModeCopy}
	got := encodeArgs("/work/j1/source", r, "/work/j1/hls")
	want := []string{
		"-y", "-i", "/work/j1/source",
		"-c:v", "copy", "-c:a", "copy",
		"-f", "hls",
		"-hls_time", "6",
		"-hls_segment_filename", "/work/j1/hls/original_seg_%03d.ts",
		"/work/j1/hls/original_master.m3u8",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("copy args mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEncodeArgs1080Quality(t *testing.T) {
	r := hls.Rendition{Label: "1080p", Height: 1080, CRF: 20, AudioBitrate: "128k", Mode: hls.ModeTranscode}
	args := encodeArgs("src", r, "out")
	assertPair := func(flag, value string) {
		t.Helper()
		for i := 0; i < len(args)-1; i++ {
			if args[i] == flag {
				if args[i+1] != value {
					t.Fatalf("%s: expected %q, got %q", flag, value, args[i+1])
				}
				return
			}
		}
		t.Fatalf("flag %s not found in %v", flag, args)
	}
	assertPair("-crf", "20")
	assertPair("-b:a", "128k")
	assertPair("-vf", "scale=-2:1080")
}
