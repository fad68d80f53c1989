package spout

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// InfoSize is the size of the per-sender SharedTextureInfo map.
const InfoSize = 280

const descriptionChars = 128

// SenderInfo is the description receivers read from a sender's map.
type SenderInfo struct {
	ShareHandle uint32
	Width       uint32
	Height      uint32
	Format      gfx.Format
	Usage       uint32
	// Description holds the sender's executable path.
	Description string
	PartnerID   uint32
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// MarshalBinary lays the info out as SharedTextureInfo.
func (s SenderInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, InfoSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], s.ShareHandle)
	le.PutUint32(buf[4:], s.Width)
	le.PutUint32(buf[8:], s.Height)
	le.PutUint32(buf[12:], uint32(s.Format))
	le.PutUint32(buf[16:], s.Usage)

	desc := []rune(s.Description)
	for len(utf16.Encode(desc)) > descriptionChars-1 {
		desc = desc[:len(desc)-1]
	}
	enc, err := utf16le.NewEncoder().Bytes([]byte(string(desc)))
	if err != nil {
		return nil, fmt.Errorf("encode description: %w", err)
	}
	copy(buf[20:20+descriptionChars*2], enc)

	le.PutUint32(buf[276:], s.PartnerID)
	return buf, nil
}

// UnmarshalBinary parses a SharedTextureInfo block.
func (s *SenderInfo) UnmarshalBinary(buf []byte) error {
	if len(buf) < InfoSize {
		return fmt.Errorf("sender info: short buffer (%d bytes)", len(buf))
	}
	le := binary.LittleEndian
	s.ShareHandle = le.Uint32(buf[0:])
	s.Width = le.Uint32(buf[4:])
	s.Height = le.Uint32(buf[8:])
	s.Format = gfx.Format(le.Uint32(buf[12:]))
	s.Usage = le.Uint32(buf[16:])

	raw := buf[20 : 20+descriptionChars*2]
	end := len(raw)
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			end = i
			break
		}
	}
	desc, err := utf16le.NewDecoder().Bytes(raw[:end])
	if err != nil {
		return fmt.Errorf("decode description: %w", err)
	}
	s.Description = string(desc)
	s.PartnerID = le.Uint32(buf[276:])
	return nil
}
