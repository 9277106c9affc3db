package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/partsim/sim"
)

type countingHook struct {
	count int
	last  sim.HookCtx
}

func (h *countingHook) Func(ctx sim.HookCtx) {
	h.count++
	h.last = ctx
}

var _ = Describe("HookableBase", func() {
	var base *sim.HookableBase

	BeforeEach(func() {
		base = sim.NewHookableBase()
	})

	It("should invoke every hook in registration order", func() {
		var order []string
		base.AcceptHook(sim.HookFunc(func(sim.HookCtx) { order = append(order, "a") }))
		base.AcceptHook(sim.HookFunc(func(sim.HookCtx) { order = append(order, "b") }))

		base.InvokeHook(sim.HookCtx{})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]string{"a", "b"}))
	})

	It("should pass the context through", func() {
		h := &countingHook{}
		pos := &sim.HookPos{Name: "Pos"}
		base.AcceptHook(h)

		base.InvokeHook(sim.HookCtx{Pos: pos, Now: 2, Item: "x"})

		Expect(h.count).To(Equal(1))
		Expect(h.last.Pos).To(BeIdenticalTo(pos))
		Expect(h.last.Now).To(Equal(sim.VTimeInSec(2)))
		Expect(h.last.Item).To(Equal("x"))
	})

	It("should reject the same hook twice", func() {
		h := &countingHook{}
		base.AcceptHook(h)

		Expect(func() { base.AcceptHook(h) }).To(Panic())
	})
})

var _ = Describe("Time", func() {
	It("should return the later time", func() {
		Expect(sim.Max(1, 2)).To(Equal(sim.VTimeInSec(2)))
		Expect(sim.Max(3, 2)).To(Equal(sim.VTimeInSec(3)))
	})
})

var _ = Describe("Sequential IDGenerator", func() {
	It("should produce increasing IDs", func() {
		g := sim.NewSequentialIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})
})
