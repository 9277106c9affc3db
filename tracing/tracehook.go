package tracing

import (
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
)

// KindLayer is the kind of the tasks created from layer executions.
const KindLayer = "layer"

type traceHook struct {
	tracer Tracer
	ids    sim.IDGenerator
}

// CollectTrace lets a tracer receive every layer execution of a simulator.
func CollectTrace(domain sim.Hookable, tracer Tracer) {
	domain.AcceptHook(&traceHook{
		tracer: tracer,
		ids:    sim.GetIDGenerator(),
	})
}

func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case timing.HookPosLayerExecuted:
		exec := ctx.Item.(timing.LayerExecution)
		h.tracer.RecordTask(Task{
			ID:        h.ids.Generate(),
			Kind:      KindLayer,
			What:      exec.Layer.Name,
			Where:     exec.Device.Name(),
			StartTime: exec.Start,
			EndTime:   exec.End,
		})
	case timing.HookPosRunEnd:
		h.tracer.EndRun(ctx.Item.(timing.Result))
	}
}
