package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// AnimationDescriptor locates one animation's tiles in the assembled
// sheet. End is the cumulative frame count across all actions processed
// so far, not the action's own length: consumers partition the sheet by
// reading successive End offsets.
type AnimationDescriptor struct {
	Name string `json:"name"`
	End  int    `json:"end"`
}

// Meta is the sidecar document written next to an assembled sheet
// (the .bss file).
//
// Key names and field order are part of the consumer contract and must
// not change; the struct declaration order is the wire order.
type Meta struct {
	Name       string                `json:"name"`
	TileWidth  int                   `json:"tileWidth"`
	TileHeight int                   `json:"tileHeight"`
	FrameRate  float64               `json:"frameRate"`
	Animations []AnimationDescriptor `json:"animations"`
}

// EncodeMeta serializes a Meta document for the .bss sidecar file.
//
// Output is tab-indented JSON with a trailing newline. All names are
// NFC-normalized so the same subject produces byte-identical metadata
// regardless of how its name was composed in the authoring tool.
func EncodeMeta(m Meta) ([]byte, error) {
	m.Name = norm.NFC.String(m.Name)

	anims := make([]AnimationDescriptor, len(m.Animations))
	for i, a := range m.Animations {
		anims[i] = AnimationDescriptor{Name: norm.NFC.String(a.Name), End: a.End}
	}
	m.Animations = anims

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode sheet metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// MetaFilename returns the sidecar filename for a subject: <subject>.bss.
func MetaFilename(subject string) string {
	return norm.NFC.String(subject) + ".bss"
}

// SheetFilename returns the assembled image filename for a subject:
// <subject>.png.
func SheetFilename(subject string) string {
	return norm.NFC.String(subject) + ".png"
}
