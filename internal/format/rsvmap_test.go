package format_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dtbkit/internal/format"
	"github.com/joshuapare/dtbkit/internal/testutil/fdtgen"
)

func TestParseReservations(t *testing.T) {
	blob := fdtgen.New().
		Reserve(0x48000000, 0x100000).
		Reserve(0x1_0000_0000, 0x2000).
		BeginNode("").EndNode().Bytes()

	h, err := format.ParseHeader(blob)
	require.NoError(t, err)

	rsv, err := format.ParseReservations(blob, h)
	require.NoError(t, err)
	require.Equal(t, []format.Reservation{
		{Address: 0x48000000, Size: 0x100000},
		{Address: 0x1_0000_0000, Size: 0x2000},
	}, rsv)
}

func TestParseReservations_Empty(t *testing.T) {
	blob := minimalBlob()
	h, err := format.ParseHeader(blob)
	require.NoError(t, err)

	rsv, err := format.ParseReservations(blob, h)
	require.NoError(t, err)
	require.Empty(t, rsv)
}

func TestParseReservations_Unterminated(t *testing.T) {
	blob := minimalBlob()
	h, err := format.ParseHeader(blob)
	require.NoError(t, err)

	// Point the map at the last 8-aligned slot so no terminator fits.
	h.RsvMapOffset = uint32(len(blob)-8) &^ 7
	binary.BigEndian.PutUint64(blob[h.RsvMapOffset:], 1)

	_, err = format.ParseReservations(blob, h)
	require.ErrorIs(t, err, format.ErrBadStructure)
}
