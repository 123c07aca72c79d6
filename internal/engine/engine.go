package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kode4food/renewal/internal/engine/runopt"
	"github.com/kode4food/renewal/internal/escalation"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
)

type (
	// Step is the business logic of one node
	Step func(context.Context, api.SharedState) (api.Update, error)

	// Registry binds executable nodes to their steps
	Registry map[api.Node]Step

	// Clock provides the current time for update timestamps
	Clock func() time.Time

	// Emitter receives each merged update in order. Returning an error
	// aborts the run
	Emitter func(*api.NodeUpdate) error

	// Dependencies are the collaborators an Engine is constructed with
	Dependencies struct {
		Steps  Registry
		Tracer trace.Tracer
		Clock  Clock
	}

	// Engine executes the renewal workflow graph
	Engine struct {
		steps  Registry
		tracer trace.Tracer
		clock  Clock
	}

	// Result is the outcome of a completed run
	Result struct {
		RunID   string
		State   api.SharedState
		Updates []*api.NodeUpdate
	}

	run struct {
		*Engine
		emit  Emitter
		opts  *runopt.Options
		state api.SharedState
		seq   int
	}
)

var (
	ErrStepFailed        = errors.New("step failed")
	ErrRouteLoop         = errors.New("run exceeded step limit")
	ErrMissingStep       = errors.New("no step registered for node")
	ErrInvalidUpdate     = errors.New("step returned invalid update")
	ErrInvalidTransition = errors.New("invalid node transition")
)

// StepNodes lists the nodes that must be bound in a Registry
var StepNodes = []api.Node{
	api.NodeOrchestrate,
	api.NodeVerifyChannel,
	api.NodePlan,
	api.NodeGreetClose,
	api.NodeDraft,
	api.NodeReviewContent,
	api.NodeEscalate,
	api.NodeSendEmail,
	api.NodeSendWhatsApp,
	api.NodeSendVoice,
}

const tracerName = "github.com/kode4food/renewal/internal/engine"

// New creates an Engine, verifying that every step node is registered
func New(deps Dependencies) (*Engine, error) {
	for _, node := range StepNodes {
		if deps.Steps[node] == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingStep, node)
		}
	}

	e := &Engine{
		steps:  deps.Steps,
		tracer: deps.Tracer,
		clock:  deps.Clock,
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e, nil
}

// Run executes a workflow to a terminal node and returns the merged state
// along with the ordered update stream
func (e *Engine) Run(
	ctx context.Context, initial api.SharedState, opts ...runopt.Applier,
) (*Result, error) {
	opt := runopt.DefaultOptions(opts...)
	res := &Result{RunID: opt.RunID}
	state, err := e.stream(ctx, initial, func(u *api.NodeUpdate) error {
		res.Updates = append(res.Updates, u)
		return nil
	}, opt)
	res.State = state
	return res, err
}

// Stream executes a workflow, emitting each merged update as it happens.
// On failure the returned state is the last successfully merged one
func (e *Engine) Stream(
	ctx context.Context, initial api.SharedState, emit Emitter,
	opts ...runopt.Applier,
) (api.SharedState, error) {
	return e.stream(ctx, initial, emit, runopt.DefaultOptions(opts...))
}

func (e *Engine) stream(
	ctx context.Context, initial api.SharedState, emit Emitter,
	opt *runopt.Options,
) (api.SharedState, error) {
	r := &run{
		Engine: e,
		emit:   emit,
		opts:   opt,
		state:  initial.Clone(),
	}
	if r.state.Mode == "" {
		r.state.Mode = api.ModeAI
	}
	r.state.CurrentNode = api.NodeOrchestrate
	err := r.execute(ctx)
	return r.state, err
}

func (r *run) execute(ctx context.Context) error {
	node := api.NodeOrchestrate
	for visited := 0; ; visited++ {
		if visited >= r.opts.MaxSteps {
			return fmt.Errorf("%w: %d", ErrRouteLoop, r.opts.MaxSteps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.visit(ctx, node); err != nil {
			return err
		}
		if IsTerminal(node) {
			return nil
		}

		next := routes[node](r.state)
		if !nodeTransitions.CanTransition(node, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, node, next)
		}
		node = next
	}
}

func (r *run) visit(ctx context.Context, node api.Node) error {
	switch node {
	case api.NodeOrchestrate:
		if reason, ok := escalation.Threshold(
			r.state.DistressFlag, r.state.ObjectionCount,
		); ok {
			return r.apply(node, r.preCheck(reason))
		}
		return r.invoke(ctx, node)
	case api.NodeAssemble:
		return r.fork(ctx)
	case api.NodeRouteChannel, api.NodeCompleted:
		return r.apply(node, api.Update{})
	default:
		return r.invoke(ctx, node)
	}
}

func (r *run) preCheck(reason string) api.Update {
	slog.Info("Escalating before orchestration",
		log.PolicyID(r.state.PolicyID),
		log.RunID(r.opts.RunID),
		slog.String("reason", reason))
	return api.Update{}.Escalation(reason).Audit(fmt.Sprintf(
		"[orchestrate] Direct escalation: distress=%t, objections=%d",
		r.state.DistressFlag, r.state.ObjectionCount,
	))
}

func (r *run) invoke(ctx context.Context, node api.Node) error {
	u, err := r.call(ctx, node, r.state.Clone())
	if err != nil {
		return err
	}
	return r.apply(node, u)
}

func (r *run) call(
	ctx context.Context, node api.Node, st api.SharedState,
) (api.Update, error) {
	ctx, span := r.tracer.Start(ctx, "renewal.step",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("renewal.node", string(node)),
			attribute.String("renewal.policy_id", st.PolicyID),
			attribute.String("renewal.run_id", r.opts.RunID),
		),
	)
	defer span.End()

	start := r.clock()
	u, err := r.steps[node](ctx, st)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Step failed",
			log.PolicyID(st.PolicyID),
			log.RunID(r.opts.RunID),
			log.Node(node),
			log.Error(err))
		return api.Update{}, fmt.Errorf("%w: %s: %w", ErrStepFailed, node, err)
	}
	slog.Debug("Step completed",
		log.PolicyID(st.PolicyID),
		log.RunID(r.opts.RunID),
		log.Node(node),
		slog.Duration("duration", r.clock().Sub(start)))
	return u, nil
}

func (r *run) apply(node api.Node, u api.Update) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidUpdate, node, err)
	}

	next := r.state.Merge(u)
	next.CurrentNode = node
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidUpdate, node, err)
	}
	r.state = next
	r.seq++

	if r.emit == nil {
		return nil
	}
	return r.emit(&api.NodeUpdate{
		Time:   r.clock(),
		RunID:  r.opts.RunID,
		Node:   node,
		Update: u.Clone(),
		Seq:    r.seq,
	})
}
