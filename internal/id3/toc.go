package id3

import (
	"bytes"
	"io"

	"github.com/bogem/id3v2/v2"
)

// CTOC flag bits.
const (
	tocFlagOrdered  = 0x01
	tocFlagTopLevel = 0x02
)

const (
	frameHeaderSize = 10
	encodingUTF8    = 0x03
)

// tocFrame is a CTOC (table of contents) frame, which id3v2 does not model.
// The body is: element ID, NUL, flags, entry count, NUL-terminated child IDs,
// then an optional embedded TIT2 frame.
type tocFrame struct {
	ElementID string
	TopLevel  bool
	Ordered   bool
	ChildIDs  []string
	Title     string
}

var _ id3v2.Framer = tocFrame{}

func (f tocFrame) Size() int {
	return len(f.body())
}

// UniqueIdentifier keys the frame by element ID so distinct tables can coexist.
func (f tocFrame) UniqueIdentifier() string {
	return f.ElementID
}

func (f tocFrame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.body())
	return int64(n), err
}

func (f tocFrame) body() []byte {
	var b bytes.Buffer
	b.WriteString(f.ElementID)
	b.WriteByte(0)

	var flags byte
	if f.TopLevel {
		flags |= tocFlagTopLevel
	}
	if f.Ordered {
		flags |= tocFlagOrdered
	}
	b.WriteByte(flags)
	b.WriteByte(byte(len(f.ChildIDs)))
	for _, id := range f.ChildIDs {
		b.WriteString(id)
		b.WriteByte(0)
	}

	if f.Title != "" {
		b.Write(textSubframe("TIT2", f.Title))
	}
	return b.Bytes()
}

// textSubframe renders a complete v2.4 text frame: header then UTF-8 body.
func textSubframe(id, text string) []byte {
	size := 1 + len(text)
	out := make([]byte, 0, frameHeaderSize+size)
	out = append(out, id...)
	out = append(out, synchsafe(uint32(size))...)
	out = append(out, 0, 0)
	out = append(out, encodingUTF8)
	out = append(out, text...)
	return out
}

// synchsafe encodes n in four 7-bit bytes as ID3v2.4 frame sizes require.
func synchsafe(n uint32) []byte {
	return []byte{
		byte(n>>21) & 0x7f,
		byte(n>>14) & 0x7f,
		byte(n>>7) & 0x7f,
		byte(n) & 0x7f,
	}
}
