// Package hls holds the pure decision logic of the transcoding pipeline:
// rendition planning and master playlist assembly. No I/O happens here.
package hls

import "fmt"

// Mode selects how a rendition is produced.
type Mode string

const (
	// ModeCopy remuxes the source into segments without re-encoding.
	ModeCopy Mode = "copy"
	// ModeTranscode re-encodes video and audio to the rendition's target.
	ModeTranscode Mode = "transcode"
)

// LabelOriginal is the label of the copy-mode rendition kept at source
// resolution.
const LabelOriginal = "original"

// Rendition is one entry of a rendition plan.
type Rendition struct {
	Label        string
	Height       int
	CRF          int
	AudioBitrate string
	Mode         Mode
}

// The fixed transcode ladder below the 1080p tier.
var lowerLadder = []Rendition{
	{Label: "720p", Height: 720, CRF: 23, AudioBitrate: "96k", Mode: ModeTranscode},
	{Label: "480p", Height: 480, CRF: 23, AudioBitrate: "96k", Mode: ModeTranscode},
	{Label: "360p", Height: 360, CRF: 23, AudioBitrate: "96k", Mode: ModeTranscode},
}

// Plan maps the probed source height and the user's downscale preference to
// an ordered rendition plan, strictly descending by height.
//
// When downscaling applies (preference set and source above 1080), the source
// copy is not kept: the plan is the full fixed ladder topped by a 1080p
// transcode. Otherwise the source is remuxed as-is ("original") and lower
// ladder entries are added only where they would actually downscale; a
// source height of 0 (no video stream found) yields the original remux only.
func Plan(sourceHeight int, preferDownscaleTo1080 bool) []Rendition {
	if preferDownscaleTo1080 && sourceHeight > 1080 {
		plan := []Rendition{
			{Label: "1080p", Height: 1080, CRF: 20, AudioBitrate: "128k", Mode: ModeTranscode},
		}
		return append(plan, lowerLadder...)
	}

	plan := []Rendition{
		{Label: LabelOriginal, Height: sourceHeight, Mode: ModeCopy},
	}
	for _, r := range lowerLadder {
		if r.Height < sourceHeight {
			plan = append(plan, r)
		}
	}
	return plan
}

// MediaPlaylistName returns the per-rendition playlist filename.
func MediaPlaylistName(label string) string {
	return label + "_master.m3u8"
}

// SegmentPattern returns the ffmpeg segment filename pattern for a rendition.
func SegmentPattern(label string) string {
	return fmt.Sprintf("%s_seg_%%03d.ts", label)
}
