package hook

import (
	"context"
	"errors"
	"fmt"

	"github.com/certhook/certhook/internal/config"
	"github.com/certhook/certhook/internal/deploy"
	"github.com/certhook/certhook/internal/dns"
	"github.com/certhook/certhook/internal/ui"
)

// Runner executes hook invocations against a DNS provider and the
// deployment config. The configuration is read once at startup and never
// mutated.
type Runner struct {
	cfg      *config.Config
	provider dns.Provider
	waiter   *dns.Waiter
}

// New builds a Runner. provider may be nil for events that never touch DNS.
func New(cfg *config.Config, provider dns.Provider) *Runner {
	return &Runner{
		cfg:      cfg,
		provider: provider,
		waiter:   dns.NewWaiter(cfg.Propagation),
	}
}

// Run dispatches one invocation. A non-nil error means the invocation
// failed and the process must exit non-zero.
func (r *Runner) Run(ctx context.Context, inv *Invocation) error {
	ui.Progress("Hook executing: %s", inv.Kind)

	switch inv.Kind {
	case DeployChallenge:
		return r.deployChallenge(ctx, inv)
	case CleanChallenge:
		return r.cleanChallenge(ctx, inv)
	case DeployCert:
		return r.deployCert(ctx, inv)
	case UnchangedCert:
		ui.Progress("Existing cert for '%s' is unchanged. Skipping hook!", inv.Domain)
		return nil
	case InvalidChallenge:
		// Surface detail only; dehydrated owns the failure handling and
		// will abort this domain on its own.
		ui.Error("Invalid challenge for '%s'", inv.Domain)
		ui.Error("Full error: '%s'", inv.Response)
		return nil
	case RequestFailure:
		ui.Error("Request failure (%s %s): %s", inv.ReqType, inv.StatusCode, inv.Reason)
		return nil
	case StartupHook:
		return nil
	case ExitHook:
		if inv.ErrorDetail != "" {
			ui.Warning("dehydrated reported an error on exit: %s", inv.ErrorDetail)
		}
		return nil
	default:
		return fmt.Errorf("unhandled hook event %v", inv.Kind)
	}
}

func (r *Runner) deployChallenge(ctx context.Context, inv *Invocation) error {
	if r.provider == nil {
		return errors.New("dns provider not configured")
	}
	if err := r.provider.Present(ctx, inv.Domain, inv.TokenFilename, inv.TokenValue); err != nil {
		return fmt.Errorf("deploy challenge for %s: %w", inv.Domain, err)
	}
	if err := r.waiter.Wait(ctx, inv.Domain, inv.TokenValue); err != nil {
		return fmt.Errorf("deploy challenge for %s: %w", inv.Domain, err)
	}
	return nil
}

func (r *Runner) cleanChallenge(ctx context.Context, inv *Invocation) error {
	if r.provider == nil {
		return errors.New("dns provider not configured")
	}
	if err := r.provider.CleanUp(ctx, inv.Domain, inv.TokenFilename, inv.TokenValue); err != nil {
		return fmt.Errorf("clean challenge for %s: %w", inv.Domain, err)
	}
	return nil
}

func (r *Runner) deployCert(ctx context.Context, inv *Invocation) error {
	ui.Progress("Private Key: %s", inv.KeyFile)
	ui.Progress("Certificate: %s", inv.CertFile)
	ui.Progress("Full Chain: %s", inv.FullChainFile)

	dcfg, err := deploy.LoadConfig(r.cfg.DeployConfig)
	if err != nil {
		return err
	}
	d := deploy.New(dcfg, r.cfg.CertsRoot, r.cfg.PostActionTimeout)

	sources := map[string]string{
		deploy.TypePrivKey:   inv.KeyFile,
		deploy.TypeCert:      inv.CertFile,
		deploy.TypeFullChain: inv.FullChainFile,
	}
	if inv.ChainFile != "" {
		sources[deploy.TypeChain] = inv.ChainFile
	}

	deployed, deployErr := d.DeployDomain(inv.Domain, sources)
	if !deployed {
		return deployErr
	}
	if actionErr := d.RunPostActions(ctx); actionErr != nil {
		return errors.Join(deployErr, actionErr)
	}
	return deployErr
}
