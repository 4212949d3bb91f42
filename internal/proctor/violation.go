package proctor

import (
	"encoding/json"
	"fmt"
	"time"
)

// ViolationKind identifies what kind of proctoring rule was broken.
type ViolationKind int

const (
	KindTabSwitch ViolationKind = iota
	KindWindowBlur
	KindNoFace
	KindOutOfFrame
	KindMultipleFaces
	KindLookingAway
	KindCameraBlocked
)

var kindNames = map[ViolationKind]string{
	KindTabSwitch:     "tab-switch",
	KindWindowBlur:    "window-blur",
	KindNoFace:        "no-face",
	KindOutOfFrame:    "out-of-frame",
	KindMultipleFaces: "multiple-faces",
	KindLookingAway:   "looking-away",
	KindCameraBlocked: "camera-blocked",
}

var kindFromName = map[string]ViolationKind{
	"tab-switch":     KindTabSwitch,
	"window-blur":    KindWindowBlur,
	"no-face":        KindNoFace,
	"out-of-frame":   KindOutOfFrame,
	"multiple-faces": KindMultipleFaces,
	"looking-away":   KindLookingAway,
	"camera-blocked": KindCameraBlocked,
}

var kindMessages = map[ViolationKind]string{
	KindTabSwitch:     "Tab switch detected",
	KindWindowBlur:    "Window lost focus",
	KindNoFace:        "No face detected",
	KindOutOfFrame:    "Moved out of frame",
	KindMultipleFaces: "Multiple faces detected",
	KindLookingAway:   "Looking away from screen",
	KindCameraBlocked: "Camera appears blocked or covered",
}

func (k ViolationKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Message returns the default human-readable text for the kind.
func (k ViolationKind) Message() string {
	return kindMessages[k]
}

func (k ViolationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ViolationKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := kindFromName[s]
	if !ok {
		return fmt.Errorf("unknown violation kind %q", s)
	}
	*k = v
	return nil
}

// KindFromString maps a wire/DB name back to its kind. Unknown names return
// false so stored rows from newer versions don't silently become tab-switch.
func KindFromString(s string) (ViolationKind, bool) {
	k, ok := kindFromName[s]
	return k, ok
}

// Violation is one immutable entry in a session's violation log. Entries are
// only ever appended, never mutated or removed.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
}
