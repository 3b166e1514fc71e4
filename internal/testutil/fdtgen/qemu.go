package fdtgen

// Phandles used by QEMUVirt.
const (
	QEMUClockPhandle = 0x8000
	QEMUGICPhandle   = 0x8002
)

// QEMUVirt returns a blob shaped like the one QEMU's arm64 "virt" machine
// hands to the kernel: 512 MiB of RAM at 1 GiB, a GICv3 referenced through
// the root interrupt-parent, a PL011 UART, a 3-cell PCIe host bridge and a
// fixed APB clock. The interrupt controller and the clock are defined after
// their consumers.
func QEMUVirt() []byte {
	b := New()
	b.Reserve(0x48000000, 0x100000)

	b.BeginNode("").
		PropCells("interrupt-parent", QEMUGICPhandle).
		PropCells("#size-cells", 2).
		PropCells("#address-cells", 2).
		PropStrings("compatible", "linux,dummy-virt")

	b.BeginNode("psci").
		PropCells("migrate", 0xc4000005).
		PropStrings("method", "hvc").
		PropStrings("compatible", "arm,psci-1.0", "arm,psci-0.2", "arm,psci").
		EndNode()

	b.BeginNode("memory@40000000").
		PropCells("reg", 0x0, 0x40000000, 0x0, 0x20000000).
		PropStrings("device_type", "memory").
		EndNode()

	b.BeginNode("platform-bus@c000000").
		PropCells("interrupt-parent", QEMUGICPhandle).
		PropCells("ranges", 0x0, 0x0, 0xc000000, 0x2000000).
		PropCells("#address-cells", 1).
		PropCells("#size-cells", 1).
		PropStrings("compatible", "qemu,platform", "simple-bus").
		EndNode()

	b.BeginNode("pl011@9000000").
		PropStrings("clock-names", "uartclk", "apb_pclk").
		PropCells("clocks", QEMUClockPhandle, QEMUClockPhandle).
		PropCells("interrupts", 0x0, 0x01, 0x04).
		PropCells("reg", 0x0, 0x9000000, 0x0, 0x1000).
		PropStrings("compatible", "arm,pl011", "arm,primecell").
		EndNode()

	b.BeginNode("pcie@10000000").
		PropCells("#interrupt-cells", 1).
		PropCells("ranges",
			0x1000000, 0x0, 0x0, 0x0, 0x3eff0000, 0x0, 0x10000,
			0x2000000, 0x0, 0x10000000, 0x0, 0x10000000, 0x0, 0x2eff0000,
			0x3000000, 0x80, 0x0, 0x80, 0x0, 0x80, 0x0).
		PropCells("reg", 0x40, 0x10000000, 0x0, 0x10000000).
		PropCells("#address-cells", 3).
		PropCells("#size-cells", 2).
		PropStrings("device_type", "pci").
		PropStrings("compatible", "pci-host-ecam-generic").
		EndNode()

	b.BeginNode("intc@8000000").
		PropCells("phandle", QEMUGICPhandle).
		PropCells("reg", 0x0, 0x8000000, 0x0, 0x10000, 0x0, 0x80a0000, 0x0, 0xf60000).
		PropCells("#redistributor-regions", 1).
		PropStrings("compatible", "arm,gic-v3").
		PropEmpty("ranges").
		PropCells("#size-cells", 2).
		PropCells("#address-cells", 2).
		PropEmpty("interrupt-controller").
		PropCells("#interrupt-cells", 3).
		EndNode()

	b.BeginNode("cpus").
		PropCells("#size-cells", 0).
		PropCells("#address-cells", 1)
	b.BeginNode("cpu@0").
		PropCells("reg", 0x0).
		PropStrings("enable-method", "psci").
		PropStrings("compatible", "arm,cortex-a57").
		PropStrings("device_type", "cpu").
		EndNode()
	b.EndNode()

	b.BeginNode("timer").
		PropCells("interrupts",
			0x1, 0xd, 0x4,
			0x1, 0xe, 0x4,
			0x1, 0xb, 0x4,
			0x1, 0xa, 0x4).
		PropEmpty("always-on").
		PropStrings("compatible", "arm,armv8-timer", "arm,armv7-timer").
		EndNode()

	b.BeginNode("apb-pclk").
		PropCells("phandle", QEMUClockPhandle).
		PropStrings("clock-output-names", "clk24mhz").
		PropCells("clock-frequency", 0x16e3600).
		PropCells("#clock-cells", 0).
		PropStrings("compatible", "fixed-clock").
		EndNode()

	b.BeginNode("chosen").
		PropStrings("stdout-path", "/pl011@9000000").
		PropStrings("bootargs", "console=ttyAMA0").
		EndNode()

	b.EndNode()
	return b.Bytes()
}
