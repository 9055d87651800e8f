package estimate

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carecost/carecost/directory"
	"github.com/carecost/carecost/graph"
	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/pkg/logging"
	"github.com/carecost/carecost/pkg/telemetry"
)

// Pipeline runs one cost-estimation request through the node graph. All
// collaborators are injected; the pipeline holds no global state, so a single
// instance serves concurrent runs.
type Pipeline struct {
	client         llm.Client
	planExtractor  PlanExtractor
	networkChecker NetworkChecker
	alternatives   AlternativesFinder
	directory      directory.Directory
	budget         *llm.TokenBudget
	logger         *slog.Logger
	tracer         trace.Tracer
	graph          *graph.Graph[State]
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger overrides the pipeline logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTokenBudget caps the synthesized answer context at the model's window.
// Without one the context is passed through untrimmed.
func WithTokenBudget(budget *llm.TokenBudget) PipelineOption {
	return func(p *Pipeline) {
		p.budget = budget
	}
}

// NewPipeline wires the node graph. client drives the reasoning nodes;
// the extractor, checker, finder, and directory are the external
// capabilities the nodes call.
func NewPipeline(
	client llm.Client,
	planExtractor PlanExtractor,
	networkChecker NetworkChecker,
	alternatives AlternativesFinder,
	dir directory.Directory,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		client:         client,
		planExtractor:  planExtractor,
		networkChecker: networkChecker,
		alternatives:   alternatives,
		directory:      dir,
		logger:         logging.WithComponent("pipeline"),
		tracer:         otel.Tracer("carecost/estimate"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.graph = p.buildGraph()
	return p
}

// buildGraph assembles the topology: one conditional fork after check-inputs
// (extract-plan vs use-defaults), both branches reconverging into a fixed
// linear tail.
func (p *Pipeline) buildGraph() *graph.Graph[State] {
	return graph.NewBuilder[State]().
		AddNode(nodeCheckInputs, p.checkInputs).
		AddConditionNode(nodeInsuranceRoute, p.routeInsurance, map[string]string{
			nodeExtractPlan: nodeExtractPlan,
			nodeUseDefaults: nodeUseDefaults,
		}).
		AddNode(nodeExtractPlan, p.extractPlan).
		AddNode(nodeUseDefaults, p.useDefaults).
		AddNode(nodeMapSymptoms, p.mapSymptoms).
		AddNode(nodeAssessSeverity, p.assessSeverity).
		AddNode(nodeFindProviders, p.findProviders).
		AddNode(nodeCheckNetwork, p.checkNetwork).
		AddNode(nodeEstimateCost, p.estimateCost).
		AddNode(nodeFindAlternatives, p.findAlternatives).
		AddNode(nodeGenerateAnswer, p.generateAnswer).
		AddEdge(nodeCheckInputs, nodeInsuranceRoute).
		AddEdge(nodeExtractPlan, nodeMapSymptoms).
		AddEdge(nodeUseDefaults, nodeMapSymptoms).
		AddEdge(nodeMapSymptoms, nodeAssessSeverity).
		AddEdge(nodeAssessSeverity, nodeFindProviders).
		AddEdge(nodeFindProviders, nodeCheckNetwork).
		AddEdge(nodeCheckNetwork, nodeEstimateCost).
		AddEdge(nodeEstimateCost, nodeFindAlternatives).
		AddEdge(nodeFindAlternatives, nodeGenerateAnswer).
		SetStart(nodeCheckInputs).
		SetEnd(nodeGenerateAnswer).
		Build()
}

// Routes exposes the pipeline topology as data for inspection and tests.
func (p *Pipeline) Routes() map[string][]string {
	return p.graph.Routes()
}

// Run executes one request end to end and always returns an answer: any
// failure escaping the node graph is converted into a minimal error answer
// rather than propagated.
func (p *Pipeline) Run(ctx context.Context, req *Request) (answer *Answer) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("care_needed", req.CareNeeded),
			attribute.String("zip_code", req.ZipCode),
		))
	var runErr error
	defer func() { telemetry.End(span, runErr) }()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline run panicked", "error", r)
			runErr = fmt.Errorf("panic: %v", r)
			answer = errorAnswer(fmt.Sprintf("%v", r))
		}
	}()

	final, err := p.graph.Execute(ctx, req.initialState())
	if err != nil {
		p.logger.Error("pipeline run failed", "error", err)
		runErr = err
		return errorAnswer(err.Error())
	}
	if final.Answer == nil {
		p.logger.Error("pipeline run produced no answer")
		runErr = fmt.Errorf("no answer produced")
		return errorAnswer("no answer produced")
	}

	p.logger.Info("pipeline run complete",
		"procedure", final.Procedure,
		"providers", len(final.Costed),
		"used_defaults", final.Answer.UsedDefaults)
	return final.Answer
}

// errorAnswer is the minimal answer returned when a run fails outright.
func errorAnswer(detail string) *Answer {
	return &Answer{
		SpokenSummary: "I encountered an error. Please try again.",
		Providers:     []Provider{},
		Confidence:    0,
		UsedDefaults:  false,
		Error:         detail,
	}
}
