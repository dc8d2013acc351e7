package models

import (
	"errors"
	"fmt"
)

// ErrInvalidMediaType is returned when a value is not one of the known media types.
var ErrInvalidMediaType = errors.New("invalid media type")

// MediaType enumerates the kinds of media that can be attached to content.
// The zero value is not a valid type.
type MediaType uint8

const (
	MediaTypeImage MediaType = iota + 1
	MediaTypeVideo
)

var mediaTypeNames = map[MediaType]string{
	MediaTypeImage: "image",
	MediaTypeVideo: "video",
}

// ParseMediaType converts the persisted name into a MediaType.
func ParseMediaType(name string) (MediaType, error) {
	for t, n := range mediaTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMediaType, name)
}

// Valid reports whether t is one of the declared media types.
func (t MediaType) Valid() bool {
	_, ok := mediaTypeNames[t]
	return ok
}

func (t MediaType) String() string {
	if name, ok := mediaTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MediaType(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t MediaType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMediaType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MediaType) UnmarshalText(text []byte) error {
	parsed, err := ParseMediaType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MediaParent identifies the kind of content a media item belongs to.
type MediaParent string

const (
	MediaParentNone  MediaParent = ""
	MediaParentPost  MediaParent = "post"
	MediaParentStory MediaParent = "story"
)

// Media is an image or video attached to exactly one post or one story.
type Media struct {
	ID       int64
	Type     MediaType
	PostID   *int64
	StoryID  *int64
	Location string
}

// Parent reports which content item owns the media and its identifier.
// MediaParentNone is returned when zero or both parents are set.
func (m Media) Parent() (MediaParent, int64) {
	switch {
	case m.PostID != nil && m.StoryID == nil:
		return MediaParentPost, *m.PostID
	case m.StoryID != nil && m.PostID == nil:
		return MediaParentStory, *m.StoryID
	default:
		return MediaParentNone, 0
	}
}
