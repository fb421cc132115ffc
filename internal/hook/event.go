// Package hook implements the dehydrated hook contract: lifecycle events
// arrive as positional command-line arguments and are dispatched over a
// closed set of event kinds.
package hook

import "fmt"

// EventKind enumerates the hook lifecycle events dehydrated raises.
type EventKind int

const (
	DeployChallenge EventKind = iota
	CleanChallenge
	DeployCert
	UnchangedCert
	InvalidChallenge
	RequestFailure
	StartupHook
	ExitHook
)

var eventNames = map[EventKind]string{
	DeployChallenge:  "deploy_challenge",
	CleanChallenge:   "clean_challenge",
	DeployCert:       "deploy_cert",
	UnchangedCert:    "unchanged_cert",
	InvalidChallenge: "invalid_challenge",
	RequestFailure:   "request_failure",
	StartupHook:      "startup_hook",
	ExitHook:         "exit_hook",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// NeedsDNS reports whether the event mutates challenge records and
// therefore needs a provider.
func (k EventKind) NeedsDNS() bool {
	return k == DeployChallenge || k == CleanChallenge
}

// ParseEvent maps an event name from the command line onto its kind.
func ParseEvent(name string) (EventKind, error) {
	for k, n := range eventNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown hook event %q", name)
}

// Invocation is one parsed hook invocation. Only the fields relevant to
// Kind are populated. Invocations are stateless and independent; nothing is
// carried over between them except the records the provider holds.
type Invocation struct {
	Kind   EventKind
	Domain string

	// Challenge events.
	TokenFilename string
	TokenValue    string

	// Certificate events.
	KeyFile       string
	CertFile      string
	FullChainFile string
	ChainFile     string
	Timestamp     string

	// Failure events.
	Response   string
	StatusCode string
	Reason     string
	ReqType    string

	// exit_hook error context, when dehydrated passes one.
	ErrorDetail string
}

// ParseInvocation validates the positional arguments dehydrated passes and
// builds the invocation for the named event.
func ParseInvocation(args []string) (*Invocation, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no hook event given")
	}
	kind, err := ParseEvent(args[0])
	if err != nil {
		return nil, err
	}
	inv := &Invocation{Kind: kind}
	rest := args[1:]

	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("%s: expected at least %d arguments, got %d", kind, n, len(rest))
		}
		return nil
	}

	switch kind {
	case DeployChallenge, CleanChallenge:
		if err := need(3); err != nil {
			return nil, err
		}
		inv.Domain, inv.TokenFilename, inv.TokenValue = rest[0], rest[1], rest[2]
	case DeployCert:
		if err := need(4); err != nil {
			return nil, err
		}
		inv.Domain, inv.KeyFile, inv.CertFile, inv.FullChainFile = rest[0], rest[1], rest[2], rest[3]
		if len(rest) > 4 {
			inv.ChainFile = rest[4]
		}
		if len(rest) > 5 {
			inv.Timestamp = rest[5]
		}
	case UnchangedCert:
		if err := need(4); err != nil {
			return nil, err
		}
		inv.Domain, inv.KeyFile, inv.CertFile, inv.FullChainFile = rest[0], rest[1], rest[2], rest[3]
		if len(rest) > 4 {
			inv.ChainFile = rest[4]
		}
	case InvalidChallenge:
		if err := need(2); err != nil {
			return nil, err
		}
		inv.Domain, inv.Response = rest[0], rest[1]
	case RequestFailure:
		if err := need(3); err != nil {
			return nil, err
		}
		inv.StatusCode, inv.Reason, inv.ReqType = rest[0], rest[1], rest[2]
	case StartupHook:
		// No arguments.
	case ExitHook:
		if len(rest) > 0 {
			inv.ErrorDetail = rest[0]
		}
	}
	return inv, nil
}
