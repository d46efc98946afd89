// Package mediaref translates between a note's durable audio reference and a
// transient playable handle. It is the only package that branches on whether
// audio lives at a stable file path or as a self-contained payload embedded
// in the note record.
package mediaref

import (
	"encoding/base64"
	"fmt"
)

// Kind discriminates the two durable forms of an audio reference.
type Kind string

const (
	// KindFilePath references audio at a stable, re-openable file path.
	KindFilePath Kind = "path"
	// KindEncodedPayload carries the audio bytes inside the note record,
	// for storage without durable file handles.
	KindEncodedPayload Kind = "payload"
)

// AudioReference is the durable, platform-opaque pointer to a note's audio
// bytes. Components other than this package treat it as opaque.
type AudioReference struct {
	Kind    Kind
	Path    string // set when Kind == KindFilePath
	Payload []byte // set when Kind == KindEncodedPayload
}

// NewFilePath returns a path-kind reference.
func NewFilePath(path string) AudioReference {
	return AudioReference{Kind: KindFilePath, Path: path}
}

// NewEncodedPayload returns a payload-kind reference.
func NewEncodedPayload(data []byte) AudioReference {
	return AudioReference{Kind: KindEncodedPayload, Payload: data}
}

// IsZero reports whether the reference points at nothing.
func (r AudioReference) IsZero() bool {
	return r.Kind == "" || (r.Path == "" && len(r.Payload) == 0)
}

// EncodePayload returns the payload in its serialized base64 form. Empty for
// path-kind references.
func (r AudioReference) EncodePayload() string {
	if r.Kind != KindEncodedPayload {
		return ""
	}
	return base64.StdEncoding.EncodeToString(r.Payload)
}

// DecodePayload builds a payload-kind reference from its serialized base64
// form.
func DecodePayload(encoded string) (AudioReference, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return AudioReference{}, fmt.Errorf("decoding audio payload: %w", err)
	}
	return NewEncodedPayload(data), nil
}

// String summarizes the reference without dumping payload bytes.
func (r AudioReference) String() string {
	switch r.Kind {
	case KindFilePath:
		return fmt.Sprintf("path(%s)", r.Path)
	case KindEncodedPayload:
		return fmt.Sprintf("payload(%d bytes)", len(r.Payload))
	default:
		return "empty"
	}
}
