// Package deploy installs issued certificate material into the destinations
// named by a YAML deployment config and runs the configured post-deploy
// actions. Failed targets are reported individually; remaining independent
// targets are still attempted.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/certhook/certhook/internal/ui"
)

// File types a location may name. Sources resolve to
// <certs-root>/<domain>/<type>.pem unless explicit paths are supplied.
const (
	TypePrivKey   = "privkey"
	TypeCert      = "cert"
	TypeFullChain = "fullchain"
	TypeChain     = "chain"
)

var knownTypes = map[string]bool{
	TypePrivKey:   true,
	TypeCert:      true,
	TypeFullChain: true,
	TypeChain:     true,
}

// Location maps file types to destination paths for one install target.
type Location map[string]string

// Config is the parsed deployment config.
//
//	domains:
//	  example.com:
//	    - privkey: /etc/nginx/ssl/example.com.key
//	      fullchain: /etc/nginx/ssl/example.com.pem
//	post_actions:
//	  - systemctl reload nginx
type Config struct {
	Domains     map[string][]Location `yaml:"domains"`
	PostActions []string              `yaml:"post_actions"`
}

// LoadConfig reads and validates the deployment config. A missing or
// malformed file is a configuration error and fails before any file is
// touched.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("no deployment config path configured (set DEPLOY_CONFIG or --deploy-config)")
	}
	ui.Info("Using deployment config file %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deployment config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("deployment config %s: %w", path, err)
	}
	for domain, locations := range cfg.Domains {
		for _, loc := range locations {
			for fileType := range loc {
				if !knownTypes[fileType] {
					return nil, fmt.Errorf("deployment config %s: unknown file type %q for domain %s", path, fileType, domain)
				}
			}
		}
	}
	return &cfg, nil
}

// Deployer installs certificate files per a loaded config.
type Deployer struct {
	cfg           *Config
	certsRoot     string
	actionTimeout time.Duration
}

func New(cfg *Config, certsRoot string, actionTimeout time.Duration) *Deployer {
	return &Deployer{cfg: cfg, certsRoot: certsRoot, actionTimeout: actionTimeout}
}

// DeployDomain installs the files for one domain. sources maps file types
// to the paths handed over by the driving client; types without an entry
// fall back to <certs-root>/<domain>/<type>.pem. It reports whether any
// file actually changed, and a joined error for every target that failed.
func (d *Deployer) DeployDomain(domain string, sources map[string]string) (bool, error) {
	locations := d.cfg.Domains[domain]
	if len(locations) == 0 {
		ui.Warning("no deployment locations configured for %s, skipping", domain)
		return false, nil
	}

	ui.Info("Deploying new files for: %s", domain)
	deployed := false
	var errs []error
	for _, loc := range locations {
		for fileType, dest := range loc {
			src := sources[fileType]
			if src == "" {
				src = filepath.Join(d.certsRoot, domain, fileType+".pem")
			}
			changed, err := deployFile(fileType, dest, src)
			if err != nil {
				ui.Error("could not deploy %s to %s: %v", fileType, dest, err)
				errs = append(errs, fmt.Errorf("%s -> %s: %w", fileType, dest, err))
				continue
			}
			if changed {
				deployed = true
			}
		}
	}
	return deployed, errors.Join(errs...)
}

// DeployAll runs deployment for every configured domain with derived source
// paths, then the post actions if anything changed. This is the standalone
// entry point, outside the hook lifecycle.
func (d *Deployer) DeployAll(ctx context.Context) error {
	ui.Info("Starting new file deployment")
	deployed := false
	var errs []error
	for domain := range d.cfg.Domains {
		changed, err := d.DeployDomain(domain, nil)
		if err != nil {
			errs = append(errs, err)
		}
		if changed {
			deployed = true
		}
	}
	if deployed {
		if err := d.RunPostActions(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	ui.Info("New file deployment done")
	return errors.Join(errs...)
}

// RunPostActions runs each configured action through the shell with a
// bounded timeout. A non-zero action does not undo deployed files, but it
// does fail the invocation.
func (d *Deployer) RunPostActions(ctx context.Context) error {
	if len(d.cfg.PostActions) == 0 {
		return nil
	}
	ui.Info("Starting post-deployment actions")
	var errs []error
	for _, action := range d.cfg.PostActions {
		ui.Progress("Attempting action: %s", action)

		actionCtx, cancel := context.WithTimeout(ctx, d.actionTimeout)
		cmd := exec.CommandContext(actionCtx, "sh", "-c", action)
		cmd.Stdout = ui.Out
		cmd.Stderr = ui.ErrOut
		err := cmd.Run()
		cancel()

		switch {
		case err == nil:
			ui.Progress("Action exited with status 0")
		case cmd.ProcessState != nil && cmd.ProcessState.Exited():
			ui.Progress("Action exited with status %d", cmd.ProcessState.ExitCode())
			errs = append(errs, fmt.Errorf("post action %q exited with status %d", action, cmd.ProcessState.ExitCode()))
		default:
			ui.Error("%v", err)
			errs = append(errs, fmt.Errorf("post action %q: %w", action, err))
		}
	}
	return errors.Join(errs...)
}

// deployFile replaces dest with src, keeping a .bak copy of the previous
// file and preserving its owner and mode. Identical content is skipped.
func deployFile(fileType, dest, src string) (bool, error) {
	newData, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("new %s: %w", fileType, err)
	}

	oldData, err := os.ReadFile(dest)
	if err != nil && !os.IsNotExist(err) {
		// An unreadable destination must not be silently overwritten
		// without a backup.
		return false, fmt.Errorf("existing %s: %w", fileType, err)
	}
	if err == nil && bytes.Equal(oldData, newData) {
		ui.Warning("%s matches new %s, skipping deployment", dest, fileType)
		return false, nil
	}

	var prev os.FileInfo
	if err == nil {
		prev, err = os.Stat(dest)
		if err != nil {
			return false, err
		}
		if err := os.Rename(dest, dest+".bak"); err != nil {
			return false, fmt.Errorf("backup failed: %w", err)
		}
	}

	mode := os.FileMode(0o600)
	if prev != nil {
		mode = prev.Mode().Perm()
	}
	if err := os.WriteFile(dest, newData, mode); err != nil {
		return false, err
	}
	if prev != nil {
		// Permission bits on an existing file are untouched by WriteFile.
		if err := os.Chmod(dest, prev.Mode().Perm()); err != nil {
			return false, err
		}
		if st, ok := prev.Sys().(*syscall.Stat_t); ok {
			if err := os.Chown(dest, int(st.Uid), int(st.Gid)); err != nil && !os.IsPermission(err) {
				return false, err
			}
		}
	}

	ui.Progress("Successfully deployed new %s to %s", fileType, dest)
	return true, nil
}
