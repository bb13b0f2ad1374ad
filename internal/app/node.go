package app

import (
	"context"

	"github.com/grindlemire/graft"
	"zr/internal/adapters/approval"
	"zr/internal/adapters/cas"
	"zr/internal/adapters/config"
	"zr/internal/adapters/fs"
	"zr/internal/adapters/history"
	"zr/internal/adapters/logger"
	"zr/internal/adapters/shell"
	"zr/internal/adapters/telemetry"
	"zr/internal/adapters/vcs"
	"zr/internal/core/ports"
	"zr/internal/engine/expr"
	"zr/internal/engine/scheduler"
	"zr/internal/engine/workflow"
)

const (
	// SchedulerNodeID is the unique identifier for the Scheduler Graft node.
	SchedulerNodeID graft.ID = "engine.scheduler"
	// WorkflowNodeID is the unique identifier for the workflow Engine Graft node.
	WorkflowNodeID graft.ID = "engine.workflow"
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the fully wired application, exposed to cmd/zr.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*scheduler.Scheduler]{
		ID:        SchedulerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID, cas.NodeID, fs.HasherNodeID, fs.ResolverNodeID,
			fs.VerifierNodeID, history.NodeID, expr.NodeID, telemetry.NodeID, logger.NodeID,
		},
		Run: func(ctx context.Context) (*scheduler.Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			cache, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			hist, err := graft.Dep[ports.HistoryStore](ctx)
			if err != nil {
				return nil, err
			}
			evaluator, err := graft.Dep[ports.ExpressionEvaluator](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return scheduler.New(executor, cache, hasher, resolver, verifier, hist, evaluator, tracer, log), nil
		},
	})

	graft.Register(graft.Node[*workflow.Engine]{
		ID:        WorkflowNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{SchedulerNodeID, expr.NodeID, approval.NodeID, telemetry.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*workflow.Engine, error) {
			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}
			evaluator, err := graft.Dep[ports.ExpressionEvaluator](ctx)
			if err != nil {
				return nil, err
			}
			gate, err := graft.Dep[ports.ApprovalGate](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return workflow.New(sched, evaluator, gate, tracer, log), nil
		},
	})

	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID, SchedulerNodeID, WorkflowNodeID, cas.NodeID,
			history.NodeID, vcs.NodeID, fs.ResolverNodeID, logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}
			workflows, err := graft.Dep[*workflow.Engine](ctx)
			if err != nil {
				return nil, err
			}
			cache, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}
			hist, err := graft.Dep[ports.HistoryStore](ctx)
			if err != nil {
				return nil, err
			}
			bridge, err := graft.Dep[ports.VcsBridge](ctx)
			if err != nil {
				return nil, err
			}
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, sched, workflows, cache, hist, bridge, resolver, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			theApp, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: theApp, Logger: log}, nil
		},
	})
}
