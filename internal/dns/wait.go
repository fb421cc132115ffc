package dns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/certhook/certhook/internal/config"
	"github.com/certhook/certhook/internal/ui"
)

const defaultResolvConf = "/etc/resolv.conf"

// queryTimeout bounds a single TXT lookup.
var queryTimeout = 10 * time.Second

var defaultNameservers = []string{
	"8.8.8.8:53",
	"8.8.4.4:53",
}

// Nameservers returns the resolvers to poll for propagation. Overrides from
// config win; otherwise the system resolvers from /etc/resolv.conf are used,
// falling back to public resolvers. Every entry gets a port.
func Nameservers(overrides []string) []string {
	servers := overrides
	if len(servers) == 0 {
		conf, err := mdns.ClientConfigFromFile(defaultResolvConf)
		if err == nil && len(conf.Servers) > 0 {
			servers = conf.Servers
		} else {
			return defaultNameservers
		}
	}
	withPorts := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		withPorts = append(withPorts, s)
	}
	return withPorts
}

// Waiter polls the configured nameservers until a challenge TXT record has
// been observed enough times, within a bounded window.
type Waiter struct {
	nameservers []string
	settle      time.Duration
	poll        time.Duration
	sightings   int
	timeout     time.Duration
}

// NewWaiter builds a Waiter from the propagation config. Returns nil when
// the wait is disabled; callers treat a nil Waiter as "no wait".
func NewWaiter(p config.Propagation) *Waiter {
	if p.Disabled {
		return nil
	}
	return &Waiter{
		nameservers: Nameservers(p.Nameservers),
		settle:      p.Settle,
		poll:        p.Poll,
		sightings:   p.Sightings,
		timeout:     p.Timeout,
	}
}

// Wait blocks until the TXT record for the domain's challenge name carries
// the expected value, observed w.sightings times, or until the window
// expires. Resolution failures count as not-propagated-yet, not as errors.
func (w *Waiter) Wait(ctx context.Context, domain, value string) error {
	if w == nil {
		return nil
	}
	fqdn := mdns.Fqdn(ChallengeRecord(domain))

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if w.settle > 0 {
		ui.Progress("Settling down for %s...", w.settle)
		if err := sleep(ctx, w.settle); err != nil {
			return fmt.Errorf("propagation wait for %s: %w", fqdn, err)
		}
	}

	seen := 0
	for {
		if w.observed(fqdn, value) {
			seen++
			ui.Progress("New record seen %d times", seen)
			if seen >= w.sightings {
				return nil
			}
		} else {
			ui.Progress("DNS not propagated, waiting %s...", w.poll)
		}
		if err := sleep(ctx, w.poll); err != nil {
			return fmt.Errorf("propagation wait for %s: %w", fqdn, err)
		}
	}
}

// observed queries the nameservers in order and reports whether any of them
// returned a TXT answer containing the expected value.
func (w *Waiter) observed(fqdn, value string) bool {
	m := new(mdns.Msg)
	m.SetQuestion(fqdn, mdns.TypeTXT)
	m.SetEdns0(4096, false)

	client := &mdns.Client{Timeout: queryTimeout}
	for _, ns := range w.nameservers {
		in, _, err := client.Exchange(m, ns)
		if err != nil {
			continue
		}
		if in.Rcode != mdns.RcodeSuccess {
			continue
		}
		for _, rr := range in.Answer {
			if txt, ok := rr.(*mdns.TXT); ok {
				if strings.Join(txt.Txt, "") == value {
					return true
				}
			}
		}
		// Got an authoritative-enough answer without the value.
		return false
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
