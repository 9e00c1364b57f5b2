package media

import (
	"strings"
	"testing"
)

const probeFixture = `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {"codec_type": "video", "codec_name": "h264", "width": 2560, "height": 1440},
    {"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 180}
  ],
  "format": {"duration": "1423.562000"}
}`

func TestParseProbeOutput(t *testing.T) {
	meta, err := parseProbeOutput([]byte(probeFixture))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if meta.Height != 1440 || meta.Width != 2560 {
		t.Fatalf("expected first video stream 2560x1440, got %dx%d", meta.Width, meta.Height)
	}
	if meta.Codec != "h264" {
		t.Fatalf("expected codec h264, got %s", meta.Codec)
	}
	if meta.Duration < 1423 || meta.Duration > 1424 {
		t.Fatalf("unexpected duration %f", meta.Duration)
	}
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	raw := `{"streams":[{"codec_type":"audio","codec_name":"mp3"}],"format":{"duration":"201.4"}}`
	meta, err := parseProbeOutput([]byte(raw))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if meta.Height != 0 {
		t.Fatalf("expected height 0 for audio-only input, got %d", meta.Height)
	}
}

func TestParseProbeOutputUnreportedDuration(t *testing.T) {
	raw := `{"streams":[{"codec_type":"video","height":720,"width":1280}],"format":{"duration":"N/A"}}`
	meta, err := parseProbeOutput([]byte(raw))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if meta.Duration != 0 {
		t.Fatalf("expected duration 0, got %f", meta.Duration)
	}
}

func TestParseProbeOutputMalformed(t *testing.T) {
	if _, err := parseProbeOutput([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed output")
	} else if !strings.Contains(err.Error(), "parse ffprobe output") {
		t.Fatalf("unexpected error: %v", err)
	}
}
