package greedy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/greedy"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/timing/timingtest"
)

func deviceOf(s *timing.Simulator, name string) int {
	l, err := s.Graph().LayerByName(name)
	Expect(err).NotTo(HaveOccurred())

	return l.AssignedDevice
}

var _ = Describe("Strategy", func() {
	var strategy *greedy.Strategy

	BeforeEach(func() {
		strategy = greedy.NewStrategy()
	})

	It("should spread independent branches across devices", func() {
		s := timingtest.New(2).
			Edge("input", "A").
			Edge("input", "B").
			Edge("A", "output").
			Edge("B", "output").
			Time("A", 1).
			Time("B", 1).
			IgnoreLatency().
			MustBuild()

		res := strategy.Assign(s)

		Expect(res.Makespan).To(Equal(sim.VTimeInSec(1)))
		Expect(deviceOf(s, "A")).NotTo(Equal(deviceOf(s, "B")))
	})

	It("should serialize branches with one device", func() {
		s := timingtest.New(1).
			Edge("input", "A").
			Edge("input", "B").
			Edge("A", "output").
			Edge("B", "output").
			Time("A", 1).
			Time("B", 1).
			IgnoreLatency().
			MustBuild()

		res := strategy.Assign(s)

		Expect(res.Makespan).To(Equal(sim.VTimeInSec(2)))
	})

	It("should prefer the faster device", func() {
		s := timingtest.New(3).
			Chain("input", "A", "output").
			Time("A", 5, 4, 1).
			MustBuild()

		res := strategy.Assign(s)

		Expect(deviceOf(s, "A")).To(Equal(2))
		Expect(res.Makespan).To(Equal(sim.VTimeInSec(1)))
	})

	It("should stay local when the transfer is too expensive", func() {
		s := timingtest.New(2).
			Chain("input", "A", "B", "output").
			Size("A", 1000).
			Bandwidth(100).
			Time("A", 1, 5).
			Time("B", 3, 2).
			MustBuild()

		res := strategy.Assign(s)

		Expect(deviceOf(s, "A")).To(Equal(0))
		Expect(deviceOf(s, "B")).To(Equal(0))
		Expect(res.Makespan).To(Equal(sim.VTimeInSec(4)))
	})

	It("should break ties toward the earliest available device", func() {
		s := timingtest.New(2).
			Chain("input", "A", "B", "output").
			Time("input", 1, 1).
			Time("A", 1).
			Time("B", 1).
			IgnoreLatency().
			MustBuild()

		strategy.Assign(s)

		Expect(deviceOf(s, "A")).To(Equal(1))
		Expect(deviceOf(s, "B")).To(Equal(0))
	})

	It("should agree with simulating its own assignment", func() {
		s := timingtest.New(2).
			Edge("input", "a").
			Edge("input", "b").
			Edge("a", "c").
			Edge("b", "c").
			Edge("c", "output").
			Size("a", 40).
			Size("b", 60).
			Bandwidth(20).
			Time("a", 2, 3).
			Time("b", 4, 1).
			Time("c", 1, 1).
			MustBuild()

		res := strategy.Assign(s)

		replay, err := s.Simulate(res.Assignment)

		Expect(err).NotTo(HaveOccurred())
		Expect(replay.Makespan).To(Equal(res.Makespan))
		Expect(replay.EndTimes).To(Equal(res.EndTimes))
	})
})
