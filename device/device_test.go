package device_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/sim"
)

func sampleProfile() *device.Profile {
	p := device.NewProfile("prof.csv")
	p.Set("conv1", device.ProfileEntry{Time: 2, CPUMem: 10, CUDAMem: 30, MACs: 100})
	p.Set("conv2", device.ProfileEntry{Time: 1, CPUMem: 20, CUDAMem: 5, MACs: 300})

	return p
}

var _ = Describe("Device", func() {
	var d *device.Device

	BeforeEach(func() {
		d = device.NewDevice("gpu0", sampleProfile())
	})

	It("should look up execution times", func() {
		t, err := d.ExecTime("conv1")

		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(sim.VTimeInSec(2)))
	})

	It("should report missing profile entries", func() {
		_, err := d.ExecTime("fc")

		var missing *device.MissingProfileEntryError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Device).To(Equal("gpu0"))
		Expect(missing.Layer).To(Equal("fc"))
	})

	It("should advance the clock", func() {
		d.Occupy("conv1", 2)
		d.Occupy("conv2", 5)

		Expect(d.AvailableTime).To(Equal(sim.VTimeInSec(5)))
		Expect(d.AssignedLayers).To(Equal([]string{"conv1", "conv2"}))
	})

	It("should refuse to move the clock backwards", func() {
		d.Occupy("conv1", 2)

		Expect(func() { d.Occupy("conv2", 1) }).To(Panic())
	})

	It("should reset", func() {
		d.Occupy("conv1", 2)
		d.Reset()

		Expect(float64(d.AvailableTime)).To(BeZero())
		Expect(d.AssignedLayers).To(BeEmpty())
	})

	It("should summarize memory and MACs", func() {
		d.Occupy("conv1", 2)
		d.Occupy("conv2", 3)

		mem := d.MemoryConsumption()
		Expect(mem).To(Equal(device.MemoryStats{
			CPUSum: 30, CPUPeak: 20, CUDASum: 35, CUDAPeak: 30,
		}))

		Expect(d.MACs()).To(Equal(device.MACsStats{Sum: 400, Peak: 300}))
	})

	It("should keep profile insertion order", func() {
		Expect(d.Profile.Layers()).To(Equal([]string{"conv1", "conv2"}))
	})
})

var _ = Describe("Registry", func() {
	var r *device.Registry

	BeforeEach(func() {
		var err error
		r, err = device.NewRegistry(
			device.NewDevice("0", sampleProfile()),
			device.NewDevice("1", sampleProfile()),
			device.NewDevice("2", sampleProfile()),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should assign IDs in registration order", func() {
		for i, d := range r.Devices() {
			Expect(d.ID).To(Equal(i))
		}

		Expect(r.Baseline().Name()).To(Equal("0"))
	})

	It("should reject duplicated names", func() {
		_, err := device.NewRegistry(
			device.NewDevice("a", sampleProfile()),
			device.NewDevice("a", sampleProfile()),
		)

		var dup *device.DuplicateDeviceError
		Expect(errors.As(err, &dup)).To(BeTrue())
	})

	It("should look up devices by name", func() {
		d, err := r.Lookup("2")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.ID).To(Equal(2))

		_, err = r.Lookup("7")
		var unknown *device.UnknownDeviceError
		Expect(errors.As(err, &unknown)).To(BeTrue())
		Expect(unknown.Device).To(Equal("7"))
	})

	It("should order devices by available time, stable", func() {
		r.Device(0).Occupy("conv1", 3)
		r.Device(2).Occupy("conv1", 1)

		sorted := r.ByAvailableTime()

		Expect(sorted[0].Name()).To(Equal("1"))
		Expect(sorted[1].Name()).To(Equal("2"))
		Expect(sorted[2].Name()).To(Equal("0"))
	})

	It("should check that every device profiles every layer", func() {
		Expect(r.CheckCoverage([]string{"conv1", "conv2"})).To(Succeed())

		err := r.CheckCoverage([]string{"conv1", "fc"})
		Expect(err).To(MatchError(ContainSubstring("fc")))
	})

	It("should clone device clocks", func() {
		r.Device(1).Occupy("conv1", 2)

		c := r.Clone()
		c.Device(1).Occupy("conv2", 4)
		c.CleanUp()

		Expect(r.Device(1).AvailableTime).To(Equal(sim.VTimeInSec(2)))
		Expect(r.Device(1).AssignedLayers).To(Equal([]string{"conv1"}))
		Expect(c.Device(1).Profile).To(BeIdenticalTo(r.Device(1).Profile))
	})
})
