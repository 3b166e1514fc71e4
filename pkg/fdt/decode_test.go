package fdt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dtbkit/internal/testutil/fdtgen"
)

func TestDecodeProperty(t *testing.T) {
	tests := []struct {
		name    string
		prop    string
		raw     []byte
		want    Value
		wantErr error
	}{
		{name: "address cells", prop: "#address-cells", raw: fdtgen.Cells(2), want: U32(2)},
		{name: "phandle", prop: "phandle", raw: fdtgen.Cells(0x8000), want: U32(0x8000)},
		{name: "reg-shift", prop: "reg-shift", raw: fdtgen.Cells(2), want: U32(2)},
		{name: "cell count too long", prop: "#size-cells", raw: fdtgen.Cells(1, 2), wantErr: ErrBadStructure},
		{name: "cell count too short", prop: "#clock-cells", raw: []byte{0, 1}, wantErr: ErrBadStructure},

		{name: "status okay", prop: "status", raw: fdtgen.Strings("okay"), want: StatusOkay},
		{name: "status disabled", prop: "status", raw: fdtgen.Strings("disabled"), want: StatusDisabled},
		{name: "status fail", prop: "status", raw: fdtgen.Strings("fail"), want: StatusFail},
		{name: "status unterminated", prop: "status", raw: []byte("okay"), want: StatusOkay},
		{name: "status other", prop: "status", raw: fdtgen.Strings("reserved"), wantErr: ErrBadValue},

		{
			name: "compatible",
			prop: "compatible",
			raw:  fdtgen.Strings("arm,pl011", "arm,primecell"),
			want: Strings{"arm,pl011", "arm,primecell"},
		},
		{name: "compatible unterminated tail", prop: "compatible", raw: []byte("a\x00b"), want: Strings{"a", "b"}},
		{name: "compatible interior empty", prop: "clock-names", raw: []byte("a\x00\x00b\x00"), want: Strings{"a", "", "b"}},
		{name: "empty string list", prop: "interrupt-names", raw: nil, want: Strings{}},

		{name: "model", prop: "model", raw: fdtgen.Strings("linux,dummy-virt"), want: String("linux,dummy-virt")},
		{name: "empty bootargs", prop: "bootargs", raw: []byte{0}, want: String("")},
		{name: "model unterminated", prop: "model", raw: []byte("virt"), wantErr: ErrBadValue},
		{name: "model two strings", prop: "device_type", raw: fdtgen.Strings("a", "b"), wantErr: ErrBadValue},
		{name: "model empty", prop: "stdout-path", raw: nil, wantErr: ErrBadValue},

		{name: "pinctrl", prop: "pinctrl-0", raw: fdtgen.Cells(1, 2, 3), want: U32List{1, 2, 3}},
		{name: "clock rates", prop: "assigned-clock-rates", raw: fdtgen.Cells(24000000), want: U32List{24000000}},
		{name: "pinctrl ragged", prop: "pinctrl-1", raw: []byte{0, 0, 1}, wantErr: ErrBadStructure},

		{name: "unknown", prop: "vendor,magic", raw: []byte{1, 2, 3}, want: Unknown{1, 2, 3}},
		{name: "unknown empty", prop: "interrupt-controller", raw: nil, want: Unknown(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeProperty(tt.prop, tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeProperty_Deferred(t *testing.T) {
	for _, name := range []string{"reg", "ranges", "dma-ranges", "interrupts", "clocks", "assigned-clocks"} {
		t.Run(name, func(t *testing.T) {
			raw := fdtgen.Cells(1, 2)
			got, err := decodeProperty(name, raw)
			require.NoError(t, err)
			d, ok := got.(deferred)
			require.True(t, ok, "got %T", got)
			require.Equal(t, raw, d.raw)
		})
	}
}

func TestDecodeProperty_DoesNotAlias(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	unknown, err := decodeProperty("vendor,blob", raw)
	require.NoError(t, err)
	held, err := decodeProperty("reg", raw)
	require.NoError(t, err)

	raw[0] = 0xff
	require.Equal(t, Unknown{1, 2, 3, 4}, unknown)
	require.Equal(t, []byte{1, 2, 3, 4}, held.(deferred).raw)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "reg", KindReg.String())
	require.Equal(t, "unknown", Unknown(nil).Kind().String())
	require.Equal(t, "Kind(200)", Kind(200).String())
	require.Equal(t, "disabled", StatusDisabled.String())
}
