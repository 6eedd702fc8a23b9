package plan

import (
	"context"
	"errors"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/retry"
)

// Generator is the generative model capability. It returns the provider's raw
// response envelope.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)
}

// Orchestrator turns a candidate set into a validated plan.
type Orchestrator struct {
	log     *logger.Logger
	gen     Generator
	invoker *retry.Invoker
}

func NewOrchestrator(log *logger.Logger, gen Generator, inv *retry.Invoker) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	if inv == nil {
		inv = retry.New(log)
	}
	return &Orchestrator{
		log:     log.With("component", "PlanOrchestrator"),
		gen:     gen,
		invoker: inv,
	}
}

// Plan prompts the generator with req and returns the plan only once it has
// passed validation against req.Candidates.
func (o *Orchestrator) Plan(ctx context.Context, req Request) (learningpath.Plan, error) {
	system, user, err := BuildPrompt(req)
	if err != nil {
		return learningpath.Plan{}, err
	}

	raw, err := retry.Do(ctx, o.invoker, "plan.generate", func(ctx context.Context) ([]byte, error) {
		return o.gen.Generate(ctx, system, user)
	})
	if err != nil {
		o.log.Error("plan_invoke_failed", "error", err.Error())
		return learningpath.Plan{}, err
	}

	text, shape, err := ExtractText(raw)
	if err != nil {
		o.log.Error("plan_envelope_unrecognized", "error", err.Error())
		return learningpath.Plan{}, err
	}

	doc, err := ParseDocument(StripFences(text))
	if err != nil {
		var outErr *OutputError
		if errors.As(err, &outErr) {
			o.log.Error("plan_json_parse_failed",
				"error", outErr.Err.Error(),
				"envelope", string(shape),
				"raw_output", outErr.Prefix,
			)
		}
		return learningpath.Plan{}, err
	}

	p, err := Validate(doc, req.Candidates.IDs())
	if err != nil {
		o.log.Warn("plan_validation_failed", "kind", string(learningpath.KindOf(err)), "error", err.Error())
		return learningpath.Plan{}, err
	}
	o.log.Debug("plan_validated", "nodes", len(p.Nodes), "envelope", string(shape))
	return p, nil
}
