// Package stream describes resolved, playable media streams.
package stream

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/feature"
)

// Type is the playback format of a stream.
type Type string

const (
	HLS  Type = "hls"
	File Type = "file"
)

// Quality is a file quality label.
type Quality string

const (
	QualityUnknown Quality = "unknown"
	Quality360     Quality = "360"
	Quality480     Quality = "480"
	Quality720     Quality = "720"
	Quality1080    Quality = "1080"
	Quality4K      Quality = "4k"
)

// Qualities lists labels from best to worst.
func Qualities() []Quality {
	return []Quality{Quality4K, Quality1080, Quality720, Quality480, Quality360, QualityUnknown}
}

// Source is a single file rendition.
type Source struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// CaptionType is the subtitle container format.
type CaptionType string

const (
	SRT CaptionType = "srt"
	VTT CaptionType = "vtt"
)

// Caption is a subtitle track attached to a stream.
type Caption struct {
	ID                  string      `json:"id"`
	Language            string      `json:"language"`
	URL                 string      `json:"url"`
	Type                CaptionType `json:"type"`
	HasCorsRestrictions bool        `json:"hasCorsRestrictions"`
}

// Stream is a resolved description of how to play back media.
// HLS streams carry Playlist, file streams carry Qualities.
// PreferredHeaders are sent when possible but are not required for playback.
type Stream struct {
	ID               string             `json:"id"`
	Type             Type               `json:"type"`
	Playlist         string             `json:"playlist,omitempty"`
	Qualities        map[Quality]Source `json:"qualities,omitempty"`
	Flags            feature.Set        `json:"flags"`
	Headers          map[string]string  `json:"headers,omitempty"`
	PreferredHeaders map[string]string  `json:"preferredHeaders,omitempty"`
	Captions         []Caption          `json:"captions"`
	ThumbnailTrack   string             `json:"thumbnailTrack,omitempty"`
}

// Validate checks the stream carries a URL for its type.
func (s Stream) Validate() error {
	switch s.Type {
	case HLS:
		if s.Playlist == "" {
			return errors.New("hls stream without playlist")
		}
	case File:
		if !lo.SomeBy(lo.Values(s.Qualities), func(q Source) bool { return q.URL != "" }) {
			return errors.New("file stream without qualities")
		}
	default:
		return fmt.Errorf("unknown stream type %q", s.Type)
	}
	return nil
}

// Clone returns a deep copy, so that rewriting a stream never aliases the provider's value.
func (s Stream) Clone() Stream {
	c := s
	c.Flags = append(feature.Set(nil), s.Flags...)
	c.Headers = lo.Assign(s.Headers)
	c.PreferredHeaders = lo.Assign(s.PreferredHeaders)
	c.Captions = append([]Caption(nil), s.Captions...)
	if s.Qualities != nil {
		c.Qualities = lo.Assign(s.Qualities)
	}
	return c
}

// BestQuality returns the highest available file quality.
func (s Stream) BestQuality() (Quality, Source, bool) {
	for _, q := range Qualities() {
		if src, ok := s.Qualities[q]; ok && src.URL != "" {
			return q, src, true
		}
	}
	return "", Source{}, false
}

// URL returns the URL a player opens first.
func (s Stream) URL() string {
	if s.Type == HLS {
		return s.Playlist
	}
	_, src, _ := s.BestQuality()
	return src.URL
}

func (s Stream) String() string {
	return fmt.Sprintf("%s %s", s.Type, s.URL())
}
