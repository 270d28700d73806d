package resource

import (
	"encoding/binary"
	"fmt"
)

// IndexFile is the name of the resource index in the data directory.
const IndexFile = "memlist.bin"

const (
	recordSize     = 20
	statusSentinel = 0xFF
)

// ParseIndex decodes the resource index. Record n describes resource id n; the
// list ends at the first record whose status byte is 0xFF.
func ParseIndex(data []byte) ([]Descriptor, error) {
	var list []Descriptor
	for off := 0; ; off += recordSize {
		if off < len(data) && data[off] == statusSentinel {
			return list, nil
		}
		if off+recordSize > len(data) {
			return nil, newError(KindCorruptBank, len(list),
				fmt.Errorf("%s truncated at record %d", IndexFile, len(list)))
		}
		rec := data[off : off+recordSize]
		d := Descriptor{
			ID:           len(list),
			Type:         Type(rec[1]),
			Rank:         rec[6],
			Bank:         rec[7],
			Offset:       binary.BigEndian.Uint32(rec[8:]),
			PackedSize:   binary.BigEndian.Uint32(rec[12:]),
			UnpackedSize: binary.BigEndian.Uint32(rec[16:]),
		}
		if d.Bank == 0 {
			d.State = NeverLoaded
		}
		list = append(list, d)
	}
}

// BankFile returns the file name of a bank.
func BankFile(bank uint8) string {
	return fmt.Sprintf("bank%02x", bank)
}
