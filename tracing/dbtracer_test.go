package tracing_test

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/datarecording"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/tracing"
)

var _ = Describe("DBTracer", func() {
	var (
		db       *sql.DB
		recorder datarecording.DataRecorder
		tracer   *tracing.DBTracer
	)

	BeforeEach(func() {
		var err error
		db, err = sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())

		recorder = datarecording.NewWithDB(db)
		tracer = tracing.NewDBTracer(recorder)
	})

	AfterEach(func() {
		Expect(recorder.Close()).To(Succeed())
	})

	It("should create its tables", func() {
		Expect(recorder.ListTables()).To(ContainElements(
			tracing.LayerTimesTable, tracing.BestAssignmentTable))
	})

	It("should store layer times and the assignment of each run", func() {
		tracer.RecordTask(task("gpu", 0, 1))
		tracer.EndRun(timing.Result{Makespan: 1})

		var count int
		Expect(db.QueryRow(
			"SELECT COUNT(*) FROM layer_times WHERE Run=0",
		).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))

		var dev string
		var makespan float64
		Expect(db.QueryRow(
			"SELECT Device, Makespan FROM best_assignment WHERE Layer='l'",
		).Scan(&dev, &makespan)).To(Succeed())
		Expect(dev).To(Equal("gpu"))
		Expect(makespan).To(Equal(1.0))
	})
})
