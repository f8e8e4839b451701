package models

// CallKind distinguishes audio-only calls from video calls.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)
