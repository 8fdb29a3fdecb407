//go:build ignore

// This program generates a test ANIM file for unit tests.
// Run with: go run generate_anim.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

func main() {
	var buf bytes.Buffer
	le := binary.LittleEndian

	// Header
	binary.Write(&buf, le, uint32(8))    // version
	binary.Write(&buf, le, uint32(1))    // unknown0
	binary.Write(&buf, le, float32(20))  // frame rate
	writeString(&buf, "test_skeleton")   // skeleton name
	binary.Write(&buf, le, uint32(0))    // flag count
	binary.Write(&buf, le, float32(0.1)) // play time

	// Bones: animroot -> pelvis -> spine_0, pelvis -> leg_l
	bones := []struct {
		name   string
		parent int32
	}{
		{"animroot", -1},
		{"pelvis", 0},
		{"spine_0", 1},
		{"leg_l", 1},
	}
	binary.Write(&buf, le, uint32(len(bones)))
	for _, b := range bones {
		writeString(&buf, b.name)
		binary.Write(&buf, le, b.parent)
	}

	binary.Write(&buf, le, uint32(6)) // unknown1
	binary.Write(&buf, le, uint32(1)) // unknown2

	buf.Write(bytes.Repeat([]byte{0x0C}, len(bones)))
	buf.Write(bytes.Repeat([]byte{0x08}, len(bones)))
	buf.Write(make([]byte, 16))

	// 3 frames, one transform and one quaternion per bone
	binary.Write(&buf, le, uint32(len(bones))) // transform count
	binary.Write(&buf, le, uint32(len(bones))) // quaternion count
	binary.Write(&buf, le, uint32(3))          // frame count

	for f := 0; f < 3; f++ {
		for i := range bones {
			binary.Write(&buf, le, [3]float32{0, float32(i) * 0.25, float32(f) * 0.1})
		}
		for range bones {
			binary.Write(&buf, le, [4]int16{0, 0, 0, -32768}) // identity
		}
	}

	if err := os.WriteFile("test.anim", buf.Bytes(), 0644); err != nil {
		panic(err)
	}

	println("Generated test.anim:", buf.Len(), "bytes")
	println("  - 4 bones, 3 frames")
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}
