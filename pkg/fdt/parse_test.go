package fdt

import (
	"bytes"
	"context"
	"encoding/binary"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/joshuapare/dtbkit/internal/format"
	"github.com/joshuapare/dtbkit/internal/testutil"
	"github.com/joshuapare/dtbkit/internal/testutil/fdtgen"
	"github.com/joshuapare/dtbkit/pkg/stream"
)

func mustParse(t *testing.T, blob []byte) *Tree {
	t.Helper()
	tree, err := Parse(blob)
	require.NoError(t, err)
	return tree
}

func u128(v uint64) uint128.Uint128 { return uint128.From64(v) }

func TestParse_QEMUVirt(t *testing.T) {
	tree := mustParse(t, fdtgen.QEMUVirt())

	t.Run("memory reg", func(t *testing.T) {
		mem := tree.Lookup("/memory@40000000")
		require.NotNil(t, mem)
		require.Equal(t, Reg{{Address: u128(0x40000000), Size: u128(0x20000000)}}, mem.Reg())
		require.Equal(t, String("memory"), mem.Property("device_type"))
	})

	t.Run("uart interrupts from ancestor controller", func(t *testing.T) {
		uart := tree.Lookup("/pl011@9000000")
		require.NotNil(t, uart)
		_, own := uart.U32("#interrupt-cells")
		require.False(t, own)
		require.Equal(t, Interrupts{{0x0, 0x01, 0x04}}, uart.Interrupts())
	})

	t.Run("uart clocks reference a later fixed clock", func(t *testing.T) {
		uart := tree.Lookup("/pl011@9000000")
		require.Equal(t, Clocks{
			{Phandle: fdtgen.QEMUClockPhandle, Specifier: []uint32{}},
			{Phandle: fdtgen.QEMUClockPhandle, Specifier: []uint32{}},
		}, uart.Clocks())
		require.Equal(t, Strings{"uartclk", "apb_pclk"}, uart.Property("clock-names"))
	})

	t.Run("timer has four specifiers", func(t *testing.T) {
		irqs := tree.Lookup("/timer").Interrupts()
		require.Len(t, irqs, 4)
		require.Equal(t, []uint32{0x1, 0xa, 0x4}, irqs[3])
	})

	t.Run("pcie three-cell ranges", func(t *testing.T) {
		pcie := tree.Lookup("/pcie@10000000")
		require.Equal(t, Reg{{Address: u128(0x4010000000), Size: u128(0x10000000)}}, pcie.Reg())

		ranges, ok := pcie.Property("ranges").(Ranges)
		require.True(t, ok)
		require.Equal(t, Ranges{
			{
				ChildAddress:  uint128.New(0, 0x1000000),
				ParentAddress: u128(0x3eff0000),
				Size:          u128(0x10000),
			},
			{
				ChildAddress:  uint128.New(0x10000000, 0x2000000),
				ParentAddress: u128(0x10000000),
				Size:          u128(0x2eff0000),
			},
			{
				ChildAddress:  uint128.New(0x8000000000, 0x3000000),
				ParentAddress: u128(0x8000000000),
				Size:          u128(0x8000000000),
			},
		}, ranges)
	})

	t.Run("platform bus ranges mix child and parent widths", func(t *testing.T) {
		ranges := tree.Lookup("/platform-bus@c000000").Property("ranges")
		require.Equal(t, Ranges{{ChildAddress: u128(0), ParentAddress: u128(0xc000000), Size: u128(0x2000000)}}, ranges)
	})

	t.Run("empty ranges is identity", func(t *testing.T) {
		require.Equal(t, Ranges{}, tree.Lookup("/intc@8000000").Property("ranges"))
		require.Len(t, tree.Lookup("/intc@8000000").Reg(), 2)
	})

	t.Run("zero size cells", func(t *testing.T) {
		require.Equal(t, Reg{{Address: u128(0), Size: u128(0)}}, tree.Lookup("/cpus/cpu@0").Reg())
	})

	t.Run("header and reservations", func(t *testing.T) {
		require.Equal(t, uint32(format.Version), tree.Header.Version)
		require.Equal(t, []Reservation{{Address: 0x48000000, Size: 0x100000}}, tree.Reservations)
	})
}

func TestParse_NoDeferredValuesRemain(t *testing.T) {
	tree := mustParse(t, fdtgen.QEMUVirt())

	err := tree.Walk(func(n *Node) error {
		for _, p := range n.Properties() {
			require.NotEqual(t, kindDeferred, p.Value.Kind(), "%s %s", n.Path(), p.Name)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestParse_PreservesShapeAndOrder(t *testing.T) {
	tree := mustParse(t, fdtgen.QEMUVirt())

	root := tree.Root()
	var names []string
	for _, c := range root.Children() {
		names = append(names, c.Name())
	}
	require.Equal(t, []string{
		"psci", "memory@40000000", "platform-bus@c000000", "pl011@9000000", "pcie@10000000",
		"intc@8000000", "cpus", "timer", "apb-pclk", "chosen",
	}, names)
	require.Equal(t, 12, tree.Len())

	var props []string
	for _, p := range root.Properties() {
		props = append(props, p.Name)
	}
	require.Equal(t, []string{"interrupt-parent", "#size-cells", "#address-cells", "compatible"}, props)
	require.Len(t, tree.Lookup("/intc@8000000").Properties(), 9)

	// Count events straight from the stream and compare.
	tr, err := stream.NewTraverser(fdtgen.QEMUVirt())
	require.NoError(t, err)
	var nodes, propsSeen int
	for {
		ev, err := tr.Next()
		require.NoError(t, err)
		if ev.Kind == stream.EventEnd {
			break
		}
		switch ev.Kind {
		case stream.EventBeginNode:
			nodes++
		case stream.EventProp:
			propsSeen++
		}
	}
	total := 0
	require.NoError(t, tree.Walk(func(n *Node) error {
		total += len(n.Properties())
		return nil
	}))
	require.Equal(t, nodes, tree.Len())
	require.Equal(t, propsSeen, total)
}

func TestParse_ClocksForwardReferenceWithSpecifier(t *testing.T) {
	blob := fdtgen.New().
		BeginNode("").
		PropCells("#address-cells", 1).
		PropCells("#size-cells", 1).
		BeginNode("serial@1000").
		PropCells("reg", 0x1000, 0x100).
		PropCells("clocks", 0x10, 3, 0x10, 7).
		PropStrings("clock-names", "baud", "apb").
		EndNode().
		BeginNode("clock-controller@2000").
		PropCells("reg", 0x2000, 0x1000).
		PropCells("#clock-cells", 1).
		PropCells("phandle", 0x10).
		EndNode().
		EndNode().
		Bytes()

	tree := mustParse(t, blob)
	require.Equal(t, Clocks{
		{Phandle: 0x10, Specifier: []uint32{3}},
		{Phandle: 0x10, Specifier: []uint32{7}},
	}, tree.Lookup("/serial@1000").Clocks())
}

func cellInheritanceBlob(rootCells bool) []byte {
	b := fdtgen.New().BeginNode("")
	if rootCells {
		b.PropCells("#address-cells", 1).PropCells("#size-cells", 1)
	}
	return b.
		BeginNode("soc").
		BeginNode("bus").
		BeginNode("dev@1000").
		PropCells("reg", 0x1000, 0x100).
		EndNode().
		EndNode().
		EndNode().
		EndNode().
		Bytes()
}

func TestParse_RegInheritsNearestAncestorCells(t *testing.T) {
	tree := mustParse(t, cellInheritanceBlob(true))
	require.Equal(t, Reg{{Address: u128(0x1000), Size: u128(0x100)}}, tree.Lookup("/soc/bus/dev@1000").Reg())

	_, err := Parse(cellInheritanceBlob(false))
	require.ErrorIs(t, err, ErrMissingCells)
}

func TestParse_RegUsesParentNotOwnCells(t *testing.T) {
	blob := fdtgen.New().
		BeginNode("").
		PropCells("#address-cells", 2).
		PropCells("#size-cells", 1).
		BeginNode("bus@10").
		PropCells("reg", 0x0, 0x10, 0x20).
		PropCells("#address-cells", 1).
		PropCells("#size-cells", 0).
		PropCells("ranges", 0x0, 0x0, 0x10).
		EndNode().
		EndNode().
		Bytes()

	tree := mustParse(t, blob)
	bus := tree.Lookup("/bus@10")
	require.Equal(t, Reg{{Address: u128(0x10), Size: u128(0x20)}}, bus.Reg())
	// Child address is one cell, parent address two, size zero.
	require.Equal(t, Ranges{{ChildAddress: u128(0), ParentAddress: u128(0x10), Size: u128(0)}}, bus.Property("ranges"))
}

func TestParse_InterruptParentOutsideAncestors(t *testing.T) {
	blob := fdtgen.New().
		BeginNode("").
		BeginNode("soc").
		BeginNode("gpio@0").
		PropCells("interrupt-parent", 0x2).
		PropCells("interrupts", 5, 1).
		EndNode().
		EndNode().
		BeginNode("intc").
		PropCells("phandle", 0x2).
		PropCells("#interrupt-cells", 2).
		EndNode().
		EndNode().
		Bytes()

	tree := mustParse(t, blob)
	require.Equal(t, Interrupts{{5, 1}}, tree.Lookup("/soc/gpio@0").Interrupts())
}

func TestParse_ResolutionErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() []byte
		want  error
	}{
		{
			name: "reg length not a multiple of the pair",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					PropCells("#address-cells", 2).PropCells("#size-cells", 1).
					BeginNode("dev").PropCells("reg", 1, 2, 3, 4).EndNode().
					EndNode().Bytes()
			},
			want: ErrBadStructure,
		},
		{
			name: "reg on root",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					PropCells("#address-cells", 1).PropCells("#size-cells", 1).
					PropCells("reg", 0, 1).
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "address wider than 128 bits",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					PropCells("#address-cells", 5).PropCells("#size-cells", 1).
					BeginNode("dev").PropCells("reg", 0, 0, 0, 0, 1, 1).EndNode().
					EndNode().Bytes()
			},
			want: ErrUnsupportedCells,
		},
		{
			name: "ranges without parent address cells",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("bus").
					PropCells("#address-cells", 1).PropCells("#size-cells", 1).
					PropCells("ranges", 0, 0, 0x10).
					EndNode().
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "interrupts without any interrupt-cells",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("dev").PropCells("interrupts", 1).EndNode().
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "interrupt-parent phandle missing",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("dev").PropCells("interrupt-parent", 9).PropCells("interrupts", 1).EndNode().
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "interrupt-parent cycle",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("a").PropCells("phandle", 1).PropCells("interrupt-parent", 2).EndNode().
					BeginNode("b").PropCells("phandle", 2).PropCells("interrupt-parent", 1).EndNode().
					BeginNode("dev").PropCells("interrupt-parent", 1).PropCells("interrupts", 1).EndNode().
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "interrupts ragged",
			build: func() []byte {
				return fdtgen.New().BeginNode("").PropCells("#interrupt-cells", 2).
					BeginNode("dev").PropCells("interrupts", 1, 2, 3).EndNode().
					EndNode().Bytes()
			},
			want: ErrBadStructure,
		},
		{
			name: "clock provider missing",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("dev").PropCells("clocks", 7).EndNode().
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "clock provider without clock-cells",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("dev").PropCells("assigned-clocks", 7).EndNode().
					BeginNode("clk").PropCells("phandle", 7).EndNode().
					EndNode().Bytes()
			},
			want: ErrMissingCells,
		},
		{
			name: "clock specifier cut short",
			build: func() []byte {
				return fdtgen.New().BeginNode("").
					BeginNode("dev").PropCells("clocks", 7, 1).EndNode().
					BeginNode("clk").PropCells("phandle", 7).PropCells("#clock-cells", 2).EndNode().
					EndNode().Bytes()
			},
			want: ErrBadStructure,
		},
		{
			name: "bad status",
			build: func() []byte {
				return fdtgen.New().BeginNode("").PropStrings("status", "broken").EndNode().Bytes()
			},
			want: ErrBadValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.build())
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, tree)
		})
	}
}

func TestResolve_BadRegLeavesSiblingsIntact(t *testing.T) {
	blob := fdtgen.New().BeginNode("").
		PropCells("#address-cells", 2).PropCells("#size-cells", 2).PropCells("#interrupt-cells", 1).
		BeginNode("dev").
		PropStrings("compatible", "vendor,dev").
		PropCells("reg", 0, 0x1000, 0).
		PropCells("interrupts", 9).
		PropStrings("status", "disabled").
		EndNode().
		EndNode().Bytes()

	tr, err := stream.NewTraverser(blob)
	require.NoError(t, err)
	tree := &Tree{Header: tr.Header()}
	b := builder{tr: tr, tree: tree}
	require.NoError(t, b.build())

	dev := tree.Lookup("/dev")
	r := resolver{tree: tree, log: slog.New(slog.DiscardHandler)}

	reg := dev.Property("reg").(deferred)
	_, err = r.resolveProperty(dev.id, "reg", reg.raw)
	require.ErrorIs(t, err, ErrBadStructure)

	require.Equal(t, Strings{"vendor,dev"}, dev.Property("compatible"))
	require.Equal(t, StatusDisabled, dev.Property("status"))

	irq := dev.Property("interrupts").(deferred)
	v, err := r.resolveProperty(dev.id, "interrupts", irq.raw)
	require.NoError(t, err)
	require.Equal(t, Interrupts{{9}}, v)
}

func TestParse_HeaderFailuresReturnNoTree(t *testing.T) {
	blob := fdtgen.QEMUVirt()

	short := bytes.Clone(blob)
	binary.BigEndian.PutUint32(short[format.TotalSizeOffset:], uint32(len(blob)+16))
	tree, err := Parse(short)
	require.ErrorIs(t, err, ErrTruncated)
	require.Nil(t, tree)

	tree, err = Parse(blob[:len(blob)-1])
	require.ErrorIs(t, err, ErrTruncated)
	require.Nil(t, tree)

	bad := bytes.Clone(blob)
	bad[3] = 0
	tree, err = Parse(bad)
	require.ErrorIs(t, err, ErrBadMagic)
	require.Nil(t, tree)

	old := bytes.Clone(blob)
	binary.BigEndian.PutUint32(old[format.VersionOffset:], 16)
	_, err = Parse(old)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestParse_StructuralFailures(t *testing.T) {
	b := fdtgen.New().BeginNode("").EndNode().BeginNode("again").EndNode()
	_, err := Parse(b.Bytes())
	require.ErrorIs(t, err, ErrBadStructure)

	_, err = Parse(fdtgen.New().BeginNode("").PropCells("phandle", 1, 2).EndNode().Bytes())
	require.ErrorIs(t, err, ErrBadStructure)
}

func TestParse_NestingLimit(t *testing.T) {
	tree := mustParse(t, fdtgen.Nested(format.MaxDepth))
	require.Equal(t, format.MaxDepth, tree.Len())
	require.Equal(t, format.MaxDepth-1, tree.nodes[tree.Len()-1].Depth())

	tests := []struct {
		name  string
		depth int
	}{
		{"one past the limit", format.MaxDepth + 1},
		{"far past the limit", 200000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(fdtgen.Nested(tt.depth))
			require.ErrorIs(t, err, ErrBadStructure)
			require.Nil(t, tree)
		})
	}
}

func TestParse_OwnsItsData(t *testing.T) {
	blob := fdtgen.QEMUVirt()
	tree := mustParse(t, blob)

	for i := range blob {
		blob[i] = 0
	}
	require.Equal(t, "pl011@9000000", tree.Lookup("/pl011@9000000").Name())
	require.Equal(t, Unknown{}, tree.Lookup("/timer").Property("always-on"))
	require.Equal(t, String("console=ttyAMA0"), tree.Lookup("/chosen").Property("bootargs"))
}

func TestParseWithOptions_LogsResolution(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := ParseWithOptions(fdtgen.QEMUVirt(), Options{Logger: logger})
	require.NoError(t, err)
	require.Contains(t, out.String(), "resolved property")
	require.Contains(t, out.String(), "node=/pl011@9000000")
	require.Contains(t, out.String(), "parsed device tree")
}

// countingHandler records how many records reach it.
type countingHandler struct {
	level   slog.Level
	handled int
}

func (h *countingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h *countingHandler) Handle(context.Context, slog.Record) error   { h.handled++; return nil }
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler          { return h }
func (h *countingHandler) WithGroup(string) slog.Handler               { return h }

func TestParseWithOptions_SkipsDebugWorkAboveDebugLevel(t *testing.T) {
	h := &countingHandler{level: slog.LevelInfo}
	_, err := ParseWithOptions(fdtgen.QEMUVirt(), Options{Logger: slog.New(h)})
	require.NoError(t, err)
	require.Zero(t, h.handled)

	h = &countingHandler{level: slog.LevelDebug}
	_, err = ParseWithOptions(fdtgen.QEMUVirt(), Options{Logger: slog.New(h)})
	require.NoError(t, err)
	require.Positive(t, h.handled)
}

func TestOpen(t *testing.T) {
	path := testutil.WriteBlob(t, "virt.dtb", fdtgen.QEMUVirt())

	tree, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, Strings{"linux,dummy-virt"}, tree.Root().Property("compatible"))

	_, err = Open(path + ".missing")
	require.Error(t, err)

	bad := testutil.WriteBlob(t, "bad.dtb", []byte("not a device tree blob at all, just text padding it out"))
	_, err = Open(bad)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadBlob(t *testing.T) {
	blob := fdtgen.QEMUVirt()
	trailing := append(bytes.Clone(blob), 0xaa, 0xbb)

	r := bytes.NewReader(trailing)
	got, err := ReadBlob(r)
	require.NoError(t, err)
	require.Equal(t, blob, got)
	require.Equal(t, 2, r.Len())

	_, err = ReadBlob(bytes.NewReader(blob[:len(blob)-4]))
	require.ErrorIs(t, err, ErrTruncated)

	_, err = ReadBlob(bytes.NewReader(blob[:4]))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestPeekTotalSize(t *testing.T) {
	blob := fdtgen.QEMUVirt()
	size, err := PeekTotalSize(blob[:8])
	require.NoError(t, err)
	require.Equal(t, uint32(len(blob)), size)
}

func TestTree_ConcurrentReaders(t *testing.T) {
	tree := mustParse(t, fdtgen.QEMUVirt())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = tree.FindByPhandle(fdtgen.QEMUGICPhandle).Path()
				_ = tree.Lookup("/pcie@10000000").Property("ranges")
			}
		}()
	}
	wg.Wait()
}
