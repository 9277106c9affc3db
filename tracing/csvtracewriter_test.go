package tracing_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/tracing"
	"github.com/spf13/afero"
)

var _ = Describe("CSVTraceWriter", func() {
	var fs afero.Fs

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
	})

	It("should write a header and the tasks", func() {
		w := tracing.NewCSVTraceWriter(fs, "trace")
		Expect(w.Init()).To(Succeed())

		w.RecordTask(tracing.Task{
			ID: "1", Kind: "layer", What: "A", Where: "gpu",
			StartTime: 0.5, EndTime: 1,
		})
		w.EndRun(timing.Result{})
		Expect(w.Close()).To(Succeed())

		content, err := afero.ReadFile(fs, "trace.csv")
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(Equal("ID, Kind, What, Where, Start, End"))
		Expect(lines[1]).To(Equal(
			"1, layer, A, gpu, 0.5000000000, 1.0000000000"))
	})

	It("should not overwrite an existing file", func() {
		Expect(afero.WriteFile(fs, "trace.csv", []byte("x"), 0o644)).To(Succeed())

		w := tracing.NewCSVTraceWriter(fs, "trace")

		Expect(w.Init()).NotTo(Succeed())
	})

	It("should pick a name when none is given", func() {
		w := tracing.NewCSVTraceWriter(fs, "")
		Expect(w.Init()).To(Succeed())

		Expect(w.Path()).To(HavePrefix("partsim_trace_"))
		Expect(afero.Exists(fs, w.Path())).To(BeTrue())
		Expect(w.Close()).To(Succeed())
		Expect(w.Close()).To(Succeed())
	})
})
