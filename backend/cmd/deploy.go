package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	"github.com/rius2g/musicchain/backend/pkg/deployer"
	"github.com/rius2g/musicchain/backend/pkg/manifest"
	"github.com/rius2g/musicchain/backend/pkg/simchain"
	"github.com/rius2g/musicchain/backend/pkg/tracing"
)

func newDeployCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy MusicRegistry, MusicNFT, Marketplace, DisputeResolution and Copyright",
		Args:  cobra.NoArgs,
		RunE:  a.runDeploy,
	}
	flags := cmd.Flags()
	flags.String("manifest", "", "write the deployment manifest here (.json, .yaml)")
	flags.String("report-url", "", "collector base URL to POST the manifest to")
	flags.String("artifacts", "", "Hardhat artifacts directory")
	_ = a.v.BindPFlag("manifest_path", flags.Lookup("manifest"))
	_ = a.v.BindPFlag("report_url", flags.Lookup("report-url"))
	_ = a.v.BindPFlag("artifacts_dir", flags.Lookup("artifacts"))
	return cmd
}

// target is everything a deploy run needs from the network.
type target struct {
	backend   contract.Backend
	artifacts contract.ArtifactSource
	signer    *contract.Signer
	network   string
	close     func()
}

func (a *app) connect(ctx context.Context) (*target, error) {
	if a.cfg.Simulated() {
		chain := simchain.New(simchain.WithLogger(a.logger.With().Str("component", "simchain").Logger()))
		return &target{
			backend:   chain,
			artifacts: chain.Artifacts(),
			signer:    chain.Signers()[0],
			network:   "simulated",
			close:     func() {},
		}, nil
	}

	signer, err := contract.NewSigner(a.cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	client, err := ethclient.DialContext(ctx, a.cfg.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.Endpoint(), err)
	}
	return &target{
		backend:   client,
		artifacts: contract.DirSource{Dir: a.cfg.ArtifactsDir},
		signer:    signer,
		network:   a.cfg.Network,
		close:     client.Close,
	}, nil
}

func (a *app) runDeploy(cmd *cobra.Command, args []string) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tracingCfg := a.cfg.Tracing
	tracingCfg.Writer = cmd.ErrOrStderr()
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn().Err(err).Str("event", "tracing_shutdown_failed").Send()
		}
	}()

	tgt, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer tgt.close()

	client, err := contract.Init(ctx, tgt.backend, contract.Options{
		ConfirmTimeout: a.cfg.ConfirmTimeout,
		PollInterval:   a.cfg.PollInterval,
		GasPriceCap:    a.cfg.GasPriceCap(),
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}

	d := deployer.New(client, tgt.artifacts, tgt.signer,
		deployer.WithNetwork(tgt.network),
		deployer.WithOutput(cmd.OutOrStdout()),
		deployer.WithLogger(a.logger),
		deployer.WithTracer(provider.Tracer()),
	)
	m, err := d.Run(ctx, deployer.DefaultPlan())
	if err != nil {
		return err
	}

	var errs []error
	if a.cfg.ManifestPath != "" {
		if err := manifest.Save(a.cfg.ManifestPath, m); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Info().Str("event", "manifest_saved").Str("path", a.cfg.ManifestPath).Send()
		}
	}
	if a.cfg.ReportURL != "" {
		if err := manifest.NewClient(a.cfg.ReportURL).Submit(ctx, m); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Info().Str("event", "manifest_reported").Str("url", a.cfg.ReportURL).Send()
		}
	}
	return errors.Join(errs...)
}
