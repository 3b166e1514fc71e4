package format

import (
	"fmt"

	"github.com/joshuapare/dtbkit/internal/buf"
)

// Reservation is one entry of the memory reservation map.
type Reservation struct {
	Address uint64
	Size    uint64
}

// ParseReservations decodes the memory reservation map of a blob whose header
// has already been validated. The list ends at the first all-zero entry, which
// is not returned; running off the end of totalsize first is ErrBadStructure.
func ParseReservations(b []byte, h Header) ([]Reservation, error) {
	var out []Reservation
	end := int(h.TotalSize)
	for off := int(h.RsvMapOffset); ; off += ReservationEntrySize {
		entry, ok := buf.Slice(b[:end], off, ReservationEntrySize)
		if !ok {
			return nil, fmt.Errorf("reservation map: entry at %#x past totalsize: %w", off, ErrBadStructure)
		}
		r := Reservation{Address: buf.U64BE(entry), Size: buf.U64BE(entry[8:])}
		if r.Address == 0 && r.Size == 0 {
			return out, nil
		}
		out = append(out, r)
	}
}
