// Package deployer instantiates the music contracts in dependency order and
// records the resulting addresses.
package deployer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	"github.com/rius2g/musicchain/backend/pkg/contracts"
	t "github.com/rius2g/musicchain/backend/pkg/types"
)

// Step is one contract creation. Args builds the constructor arguments from
// the owning address and the addresses of the steps named in DependsOn.
type Step struct {
	Name      string
	DependsOn []string
	Args      func(owner common.Address, deps map[string]common.Address) []any
}

func ownerOnly(owner common.Address, _ map[string]common.Address) []any {
	return []any{owner}
}

// DefaultPlan is registry, NFT, marketplace (on top of the NFT), dispute
// resolution, copyright.
func DefaultPlan() []Step {
	return []Step{
		{Name: contracts.MusicRegistryName, Args: ownerOnly},
		{Name: contracts.MusicNFTName, Args: ownerOnly},
		{
			Name:      contracts.MarketplaceName,
			DependsOn: []string{contracts.MusicNFTName},
			Args: func(owner common.Address, deps map[string]common.Address) []any {
				return []any{deps[contracts.MusicNFTName], owner}
			},
		},
		{Name: contracts.DisputeResolutionName, Args: ownerOnly},
		{Name: contracts.CopyrightName, Args: ownerOnly},
	}
}

type Deployer struct {
	client    *contract.ContractInteractionInterface
	artifacts contract.ArtifactSource
	signer    *contract.Signer

	network string
	out     io.Writer
	logger  zerolog.Logger
	tracer  trace.Tracer
}

type Option func(*Deployer)

func WithNetwork(name string) Option {
	return func(d *Deployer) { d.network = name }
}

// WithOutput sets where the human-readable address lines go.
func WithOutput(w io.Writer) Option {
	return func(d *Deployer) { d.out = w }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Deployer) { d.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Deployer) { d.tracer = tracer }
}

func New(client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, opts ...Option) *Deployer {
	d := &Deployer{
		client:    client,
		artifacts: artifacts,
		signer:    signer,
		out:       io.Discard,
		logger:    zerolog.Nop(),
		tracer:    noop.NewTracerProvider().Tracer("deployer"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes plan in order, one confirmed creation at a time. The first
// failure aborts the run; the manifest returned alongside the error holds the
// steps that did complete.
func (d *Deployer) Run(ctx context.Context, plan []Step) (*t.Manifest, error) {
	tracker := NewDependencyTracker()
	if err := tracker.Register(plan); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	ctx, span := d.tracer.Start(ctx, "deploy contracts", trace.WithAttributes(
		attribute.String("network", d.network),
		attribute.String("deployer", d.signer.Address.Hex()),
		attribute.Int("steps", len(plan)),
	))
	defer span.End()

	owner := d.signer.Address
	metrics := NewMetrics()
	manifest := &t.Manifest{
		RunID:     uuid.NewString(),
		Network:   d.network,
		ChainID:   d.client.ChainID().Uint64(),
		Deployer:  owner.Hex(),
		StartedAt: time.Now().UTC(),
	}
	logger := d.logger.With().Str("run_id", manifest.RunID).Logger()

	fmt.Fprintln(d.out, "Deploying contracts with the account:", owner.Hex())
	logger.Info().Str("event", "deploy_started").Str("deployer", owner.Hex()).Int("steps", len(plan)).Send()

	for _, step := range plan {
		deployment, err := d.runStep(ctx, tracker, metrics, step, owner)
		if err != nil {
			skipped := tracker.Dependents(step.Name)
			logger.Error().Err(err).
				Str("event", "deploy_failed").
				Str("contract", step.Name).
				Strs("blocked", skipped).
				Send()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			d.finish(manifest, metrics)
			return manifest, fmt.Errorf("deploy %s: %w", step.Name, err)
		}
		manifest.Deployments = append(manifest.Deployments, deployment)
		fmt.Fprintf(d.out, "%s deployed to: %s\n", deployment.Name, deployment.Address)
		logger.Info().
			Str("event", "contract_deployed").
			Str("contract", deployment.Name).
			Str("address", deployment.Address).
			Str("tx", deployment.TxHash).
			Uint64("gas_used", deployment.GasUsed).
			Send()
	}

	d.finish(manifest, metrics)
	logger.Info().Str("event", "deploy_finished").Fields(metrics.Compute()).Send()
	return manifest, nil
}

func (d *Deployer) runStep(ctx context.Context, tracker *DependencyTracker, metrics *Metrics, step Step, owner common.Address) (t.Deployment, error) {
	ctx, span := d.tracer.Start(ctx, "deploy "+step.Name, trace.WithAttributes(
		attribute.String("contract", step.Name),
		attribute.StringSlice("depends_on", step.DependsOn),
	))
	defer span.End()

	deps, err := tracker.Resolve(step)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return t.Deployment{}, err
	}
	art, err := d.artifacts.Artifact(step.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return t.Deployment{}, err
	}

	var args []any
	if step.Args != nil {
		args = step.Args(owner, deps)
	}

	start := time.Now()
	deployed, err := d.client.Deploy(ctx, d.signer, art, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return t.Deployment{}, err
	}
	elapsed := time.Since(start)

	tracker.Confirm(step.Name, deployed.Address)
	metrics.Track(deployed.Receipt.GasUsed, deployed.GasPrice, elapsed)
	span.SetAttributes(
		attribute.String("address", deployed.Address.Hex()),
		attribute.Int64("gas_used", int64(deployed.Receipt.GasUsed)),
	)

	return t.Deployment{
		Name:        step.Name,
		Address:     deployed.Address.Hex(),
		TxHash:      deployed.Tx.Hash().Hex(),
		BlockNumber: deployed.Receipt.BlockNumber.Uint64(),
		GasUsed:     deployed.Receipt.GasUsed,
		DurationMs:  elapsed.Milliseconds(),
		DependsOn:   step.DependsOn,
	}, nil
}

func (d *Deployer) finish(m *t.Manifest, metrics *Metrics) {
	m.FinishedAt = time.Now().UTC()
	m.TotalGasUsed = metrics.GasUsed()
	m.TotalCostWei = metrics.CostWei().String()
}
