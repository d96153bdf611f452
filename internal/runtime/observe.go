package runtime

import (
	"context"
	"time"

	"github.com/dagrun/dagrun/providers/observability"
)

// Semantic conventions for run observability attributes, in the same style
// as the teacher's graph-execution span naming (patterns/graph/observe.go),
// renamed for a dataflow run instead of an LLM agent's graph.
const (
	spanRunExecute     = "dagrun.run.execute"
	spanRunNodeExecute = "dagrun.run.node.execute"
	attrRunBuilder     = "dagrun.run.builder"
	attrRunTotalNodes  = "dagrun.run.total_nodes"
	attrNodeName       = "dagrun.node.name"
	attrNodeOriginal   = "dagrun.node.original_name"
	attrNodePriority   = "dagrun.node.priority"
	attrNodeNumInputs  = "dagrun.node.num_inputs"
	metricNodeDuration = "dagrun.node.duration"
	metricNodeCount    = "dagrun.node.count"
	metricRunDuration  = "dagrun.run.duration"
)

// observeRunStart starts the root span for one Run call.
func observeRunStart(ctx context.Context, provider observability.Provider, builderName string, totalNodes int) (context.Context, observability.Span) {
	if provider == nil {
		return ctx, nil
	}
	ctx, span := provider.StartSpan(ctx, spanRunExecute,
		observability.String(attrRunBuilder, builderName),
		observability.Int(attrRunTotalNodes, totalNodes),
	)
	provider.Info(ctx, "run started",
		observability.String(attrRunBuilder, builderName),
		observability.Int(attrRunTotalNodes, totalNodes),
	)
	return ctx, span
}

func observeRunCompleted(ctx context.Context, provider observability.Provider, span observability.Span, duration time.Duration, err error) {
	if provider == nil {
		return
	}
	provider.Histogram(metricRunDuration).Record(ctx, duration.Seconds())
	if err != nil {
		provider.Error(ctx, "run failed", observability.String(observability.AttrError, err.Error()))
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		}
	} else {
		provider.Info(ctx, "run completed", observability.Duration(observability.AttrDuration, duration))
		if span != nil {
			span.SetStatus(observability.StatusOK, "run completed")
		}
	}
	if span != nil {
		span.End()
	}
}

func observeNodeStart(ctx context.Context, provider observability.Provider, name, original string, priority, numInputs int) (context.Context, observability.Span) {
	if provider == nil {
		return ctx, nil
	}
	return provider.StartSpan(ctx, spanRunNodeExecute,
		observability.String(attrNodeName, name),
		observability.String(attrNodeOriginal, original),
		observability.Int(attrNodePriority, priority),
		observability.Int(attrNodeNumInputs, numInputs),
	)
}

func observeNodeDone(ctx context.Context, provider observability.Provider, span observability.Span, name string, duration time.Duration, err error) {
	if provider == nil {
		return
	}
	provider.Histogram(metricNodeDuration).Record(ctx, duration.Seconds(), observability.String(attrNodeName, name))
	status := "completed"
	if err != nil {
		status = "failed"
		provider.Error(ctx, "node failed",
			observability.String(attrNodeName, name),
			observability.String(observability.AttrError, err.Error()),
		)
	}
	provider.Counter(metricNodeCount).Add(ctx, 1,
		observability.String(attrNodeName, name),
		observability.String(observability.AttrStatus, status),
	)
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		} else {
			span.SetStatus(observability.StatusOK, status)
		}
		span.End()
	}
}
