package tracing_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/timing/timingtest"
	"github.com/sarchlab/partsim/tracing"
	"go.uber.org/mock/gomock"
)

var _ = Describe("CollectTrace", func() {
	var (
		mockCtrl *gomock.Controller
		tracer   *MockTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tracer = NewMockTracer(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should turn every layer execution into a task", func() {
		s := timingtest.New(2).
			Chain("input", "A", "output").
			Time("A", 1.5).
			MustBuild()
		tracing.CollectTrace(s, tracer)

		var tasks []tracing.Task
		tracer.EXPECT().RecordTask(gomock.Any()).
			Do(func(task tracing.Task) { tasks = append(tasks, task) }).
			Times(2)
		tracer.EXPECT().EndRun(gomock.Any()).
			Do(func(res timing.Result) {
				Expect(res.Makespan).To(Equal(sim.VTimeInSec(1.5)))
			})

		_, err := s.Simulate(timingtest.AssignByName(s, map[string]int{"A": 1}))
		Expect(err).NotTo(HaveOccurred())

		Expect(tasks[0].What).To(Equal("input"))
		Expect(tasks[0].Where).To(Equal("0"))
		Expect(tasks[1].Kind).To(Equal(tracing.KindLayer))
		Expect(tasks[1].What).To(Equal("A"))
		Expect(tasks[1].Where).To(Equal("1"))
		Expect(tasks[1].StartTime).To(Equal(sim.VTimeInSec(0)))
		Expect(tasks[1].EndTime).To(Equal(sim.VTimeInSec(1.5)))
		Expect(tasks[0].ID).NotTo(Equal(tasks[1].ID))
	})
})
