package timing_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/timing/timingtest"
	"go.uber.org/mock/gomock"
)

func twoBranches(numDevices int) *timingtest.Fixture {
	return timingtest.New(numDevices).
		Edge("input", "A").
		Edge("input", "B").
		Edge("A", "output").
		Edge("B", "output").
		Time("A", 1).
		Time("B", 1)
}

func endTime(s *timing.Simulator, name string) sim.VTimeInSec {
	l, err := s.Graph().LayerByName(name)
	Expect(err).NotTo(HaveOccurred())

	return l.EndTime
}

var _ = Describe("Simulator", func() {
	Context("chain with a device crossing", func() {
		var s *timing.Simulator

		BeforeEach(func() {
			s = timingtest.New(2).
				Chain("input", "A", "B", "output").
				Size("A", 100).
				Bandwidth(200).
				Time("A", 1).
				Time("B", 1).
				MustBuild()
		})

		It("should add size over bandwidth when crossing devices", func() {
			res, err := s.Simulate(timingtest.AssignByName(s,
				map[string]int{"A": 0, "B": 1}))

			Expect(err).NotTo(HaveOccurred())
			Expect(endTime(s, "A")).To(Equal(sim.VTimeInSec(1)))
			Expect(endTime(s, "B")).To(Equal(sim.VTimeInSec(2.5)))
			Expect(res.EndTimes).To(HaveKeyWithValue("B", sim.VTimeInSec(2.5)))
			Expect(res.Makespan).To(Equal(sim.VTimeInSec(2.5)))
		})

		It("should not add latency on the same device", func() {
			res, err := s.Simulate(timingtest.AllOn(s, 1))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Makespan).To(Equal(sim.VTimeInSec(2)))
		})

		It("should compute the transfer latency", func() {
			a, _ := s.Graph().LayerByName("A")
			a.AssignedDevice = 0

			Expect(s.TransferLatency(a, s.Devices().Device(1))).
				To(Equal(sim.VTimeInSec(0.5)))
			Expect(s.TransferLatency(a, s.Devices().Device(0))).
				To(BeZero())
		})

		It("should be deterministic across runs", func() {
			a := timingtest.AssignByName(s, map[string]int{"A": 1, "B": 0})

			first, err := s.Simulate(a)
			Expect(err).NotTo(HaveOccurred())
			firstB := endTime(s, "B")

			second, err := s.Simulate(a)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
			Expect(endTime(s, "B")).To(Equal(firstB))
		})

		It("should pin the source to the baseline device", func() {
			a := timingtest.AssignByName(s,
				map[string]int{"input": 1, "A": 1, "B": 1})

			res, err := s.Simulate(a)

			Expect(err).NotTo(HaveOccurred())
			Expect(s.Graph().Source().AssignedDevice).To(Equal(0))
			Expect(res.Assignment[s.Graph().Source().ID]).To(Equal(0))
		})

		It("should predict a finish time without committing", func() {
			s.CleanUp()
			input := s.Graph().Source()
			s.Commit(input, s.Devices().Device(0), 0)
			a, _ := s.Graph().LayerByName("A")

			Expect(s.Finish(a, s.Devices().Device(1))).To(Equal(sim.VTimeInSec(1)))
			Expect(a.Completed).To(BeFalse())
			Expect(s.Devices().Device(1).AvailableTime).To(BeZero())
		})
	})

	Context("ignoring latency", func() {
		It("should never add transfer latency", func() {
			s := timingtest.New(2).
				Chain("input", "A", "B", "output").
				Size("A", 1e9).
				Size("input", 1e9).
				Bandwidth(1).
				IgnoreLatency().
				Time("A", 1).
				Time("B", 1).
				MustBuild()

			res, err := s.Simulate(timingtest.AssignByName(s,
				map[string]int{"A": 1, "B": 0}))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Makespan).To(Equal(sim.VTimeInSec(2)))
			Expect(s.IgnoreLatency()).To(BeTrue())
		})
	})

	Context("two independent branches", func() {
		It("should run branches in parallel on two devices", func() {
			s := twoBranches(2).IgnoreLatency().MustBuild()

			res, err := s.Simulate(timingtest.AssignByName(s,
				map[string]int{"A": 0, "B": 1}))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Makespan).To(Equal(sim.VTimeInSec(1)))
			Expect(res.EndTimes).To(HaveLen(2))
		})

		It("should serialize branches on one device", func() {
			s := twoBranches(1).IgnoreLatency().MustBuild()

			res, err := s.Simulate(timingtest.AllOn(s, 0))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Makespan).To(Equal(sim.VTimeInSec(2)))
		})

		It("should dispatch higher priority layers first", func() {
			s := twoBranches(1).Priority("B", 2).MustBuild()

			_, err := s.Simulate(timingtest.AllOn(s, 0))

			Expect(err).NotTo(HaveOccurred())
			Expect(endTime(s, "B")).To(Equal(sim.VTimeInSec(1)))
			Expect(endTime(s, "A")).To(Equal(sim.VTimeInSec(2)))
		})
	})

	Context("single device", func() {
		It("should equal the sum along a chain", func() {
			s := timingtest.New(3).
				Chain("input", "a", "b", "c", "output").
				Size("a", 500).
				Size("b", 800).
				Time("input", 0.5).
				Time("a", 1, 9, 9).
				Time("b", 2, 9, 9).
				Time("c", 4, 9, 9).
				MustBuild()

			res, err := s.Simulate(timingtest.AllOn(s, 0))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Makespan).To(Equal(sim.VTimeInSec(7.5)))
		})
	})

	Context("device clocks", func() {
		It("should never move backwards", func() {
			s := timingtest.New(3).
				Edge("input", "a").
				Edge("input", "b").
				Edge("input", "c").
				Edge("a", "d").
				Edge("b", "d").
				Edge("c", "e").
				Edge("d", "output").
				Edge("e", "output").
				Size("a", 300).
				Size("b", 50).
				Size("c", 10).
				Time("a", 3, 1, 2).
				Time("b", 1, 2, 3).
				Time("c", 2, 2, 1).
				Time("d", 1, 4, 1).
				Time("e", 5, 1, 1).
				MustBuild()

			last := map[int]sim.VTimeInSec{}
			s.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
				if ctx.Pos != timing.HookPosLayerExecuted {
					return
				}

				exec := ctx.Item.(timing.LayerExecution)
				Expect(exec.Device.AvailableTime).
					To(BeNumerically(">=", last[exec.Device.ID]))
				Expect(exec.Start).To(BeNumerically("<=", exec.End))
				last[exec.Device.ID] = exec.Device.AvailableTime
			}))

			_, err := s.Simulate(timingtest.AssignByName(s, map[string]int{
				"a": 0, "b": 1, "c": 2, "d": 1, "e": 0,
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(HaveLen(3))
		})
	})

	Context("hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report every executed layer and the run end", func() {
			s := twoBranches(2).MustBuild()
			s.AcceptHook(hook)

			executed := 0
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				Expect(ctx.Domain).To(BeIdenticalTo(s))
				if ctx.Pos == timing.HookPosLayerExecuted {
					executed++
				}
			}).Times(3)
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				Expect(ctx.Pos).To(Equal(timing.HookPosRunEnd))
				Expect(ctx.Item).To(BeAssignableToTypeOf(timing.Result{}))
			})

			_, err := s.Simulate(timingtest.AllOn(s, 1))

			Expect(err).NotTo(HaveOccurred())
			Expect(executed).To(Equal(3))
		})

		It("should not carry hooks into forks", func() {
			s := twoBranches(2).MustBuild()
			s.AcceptHook(hook)

			f := s.Fork()
			_, err := f.Simulate(timingtest.AllOn(f, 1))

			Expect(err).NotTo(HaveOccurred())
			Expect(f.NumHooks()).To(BeZero())
			Expect(s.Graph().Source().Completed).To(BeFalse())
		})
	})

	Context("validation", func() {
		It("should reject non-positive bandwidth before simulating", func() {
			for _, bw := range []float64{0, -1, math.NaN()} {
				_, err := twoBranches(2).Bandwidth(bw).Build()

				var invalid *timing.InvalidBandwidthError
				Expect(errors.As(err, &invalid)).To(BeTrue())
			}
		})

		It("should reject incomplete assignments", func() {
			s := twoBranches(2).MustBuild()

			_, err := s.Simulate(timingtest.AssignByName(s,
				map[string]int{"A": 0}))

			var incomplete *timing.IncompleteAssignmentError
			Expect(errors.As(err, &incomplete)).To(BeTrue())
			Expect(incomplete.Layer).To(Equal("B"))
		})

		It("should reject unknown devices", func() {
			s := twoBranches(2).MustBuild()

			_, err := s.Simulate(timingtest.AssignByName(s,
				map[string]int{"A": 0, "B": 5}))

			var unknown *device.UnknownDeviceError
			Expect(errors.As(err, &unknown)).To(BeTrue())
		})

		It("should reject assignments of the wrong length", func() {
			s := twoBranches(2).MustBuild()

			_, err := s.Simulate(timing.Assignment{0, 0})

			Expect(err).To(MatchError(ContainSubstring("covers 2 of")))
		})

		It("should reject devices missing a profile entry", func() {
			b := graph.NewBuilder()
			b.AddEdge("input", "A")
			b.AddEdge("A", "output")
			g, err := b.Build()
			Expect(err).NotTo(HaveOccurred())

			p := device.NewProfile("partial.csv")
			p.Set("input", device.ProfileEntry{})
			r, err := device.NewRegistry(device.NewDevice("0", p))
			Expect(err).NotTo(HaveOccurred())

			_, err = timing.MakeBuilder().Build(g, r)

			var missing *device.MissingProfileEntryError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Layer).To(Equal("A"))
		})

		It("should reject an empty device set", func() {
			b := graph.NewBuilder()
			b.AddEdge("input", "output")
			g, err := b.Build()
			Expect(err).NotTo(HaveOccurred())
			r, err := device.NewRegistry()
			Expect(err).NotTo(HaveOccurred())

			_, err = timing.MakeBuilder().Build(g, r)

			Expect(err).To(MatchError(timing.ErrNoDevices))
		})
	})

	Context("assignment helpers", func() {
		It("should format and describe assignments", func() {
			s := twoBranches(2).MustBuild()
			a := timingtest.AssignByName(s, map[string]int{"A": 0, "B": 1})

			Expect(a.String()).To(Equal("(-1, 0, 1, -1)"))
			Expect(a.Describe(s.Graph(), s.Devices())).To(Equal(
				map[string]string{"A": "0", "B": "1"}))
			Expect(a.Clone()).To(Equal(a))
		})
	})
})
