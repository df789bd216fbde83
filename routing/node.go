package routing

import (
	"context"
	"crypto/ed25519"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/adrianbrink/routing/cache"
	"github.com/adrianbrink/routing/codec"
	"github.com/adrianbrink/routing/filter"
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/routingtable"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

// GroupSize is the default close-group size (Kademlia "k"), per spec §4.5.
const GroupSize = 8

// MaxJoiningNodes bounds how many not-yet-relocated nodes we proxy
// simultaneously while our own routing table is at capacity (I5).
const MaxJoiningNodes = 1

// proxyEntry records a proxy connection we bootstrap through.
type proxyEntry struct {
	conn     transport.ConnID
	publicId identity.PublicId
}

// clientEntry records one of our own clients (§3 client_map). publicId
// is retained (not just the connection) so hop-level signatures on
// messages this client originates can be verified against it.
type clientEntry struct {
	conn              transport.ConnID
	publicId          identity.PublicId
	clientRestriction bool
}

// Config bundles the tunables an Engine is constructed with, letting
// callers (cmd/routingd) thread values in from config.Config without
// this package importing it directly (avoiding a routing<->config
// import cycle, since config has no reason to know about routing).
type Config struct {
	GroupSize           int
	MaxJoiningNodes     int
	BootstrapRetryDelay time.Duration
	DirectionPolicy     DirectionPolicy

	// AttestationSecret, if set, makes a proxy sign its BootstrapIdentify
	// quorum size as a JWT and makes a joining candidate verify one
	// offered by its proxy. Off by default: nil skips signing/verifying
	// entirely, and admission never depends on it succeeding.
	AttestationSecret []byte
}

// DefaultConfig returns the spec's default tunables.
func DefaultConfig() Config {
	return Config{
		GroupSize:           GroupSize,
		MaxJoiningNodes:     MaxJoiningNodes,
		BootstrapRetryDelay: 5 * time.Second,
		DirectionPolicy:     DirectionLog,
	}
}

// Engine owns every piece of mutable routing state behind a single
// goroutine (Run). Nothing outside of Run's call stack may read or
// write Engine's fields — callers communicate exclusively through
// actionC and the transport's event channel, matching §5's
// single-owner cooperative concurrency model.
type Engine struct {
	cfg   Config
	log   logger.Logger
	trans transport.Transport

	id    *identity.FullId
	self  xorname.Name
	state State

	table routingtable.Table

	proxies map[transport.ConnID]proxyEntry
	clients map[string]clientEntry // keyed by hex-encoded signing public key
	joiningNodesNum int

	identityCache *cache.IdentityCache
	dataCache     *cache.DataCache

	signedFilter *filter.SignedMessageFilter
	connFilter   *filter.ConnectionFilter
	groupFilter  *filter.GroupMsgFilter
	accumulator  *filter.Accumulator

	quorumSize int // set from BootstrapIdentify while Client; from table while Node

	externalEndpoints []transport.Endpoint

	directionPolicy DirectionPolicy

	actionC chan Action
	eventC  chan Event

	blacklist map[string]time.Time // bootstrap token -> blacklisted-until
	lastBootstrapToken string
	relocationStart     time.Time

	// connectGroup collapses concurrent dial attempts at the same
	// target name (e.g. overlapping want_to_add Connect requests) into
	// one underlying transport.Connect call.
	connectGroup singleflight.Group
}

// New builds an Engine for id, ready to Run. The routing table is
// anchored at id's current (pre-relocation) name; relocation later
// replaces it wholesale (§4.11).
func New(id *identity.FullId, trans transport.Transport, cfg Config, log logger.Logger) *Engine {
	if cfg.GroupSize == 0 {
		cfg.GroupSize = GroupSize
	}
	if cfg.MaxJoiningNodes == 0 {
		cfg.MaxJoiningNodes = MaxJoiningNodes
	}
	if cfg.BootstrapRetryDelay == 0 {
		cfg.BootstrapRetryDelay = 5 * time.Second
	}

	return &Engine{
		cfg:             cfg,
		log:             log,
		trans:           trans,
		id:              id,
		self:            id.Name(),
		state:           Disconnected,
		table:           routingtable.NewTable(id.Name(), cfg.GroupSize),
		proxies:         make(map[transport.ConnID]proxyEntry),
		clients:         make(map[string]clientEntry),
		identityCache:   cache.NewIdentityCache(),
		dataCache:       cache.NewDataCache(),
		signedFilter:    filter.NewSignedMessageFilter(),
		connFilter:      filter.NewConnectionFilter(),
		groupFilter:     filter.NewGroupMsgFilter(),
		accumulator:     filter.NewAccumulator(filter.SignedMessageTTL),
		directionPolicy: cfg.DirectionPolicy,
		actionC:         make(chan Action, 64),
		eventC:          make(chan Event, 64),
		blacklist:       make(map[string]time.Time),
	}
}

// Actions returns the channel callers enqueue Actions onto.
func (e *Engine) Actions() chan<- Action { return e.actionC }

// Events returns the channel Events are emitted upward on.
func (e *Engine) Events() <-chan Event { return e.eventC }

// Bootstrap kicks off the join protocol by asking the transport to
// dial token's contact endpoints, skipping tokens still inside their
// retry-blacklist window (§9 supplement).
func (e *Engine) Bootstrap(ctx context.Context, token string, beaconPort *int) error {
	if e.IsBlacklisted(token) {
		e.log.Debug("skipping blacklisted bootstrap token")
		return nil
	}
	e.lastBootstrapToken = token
	return e.trans.Bootstrap(ctx, token, beaconPort)
}

// Run is the cooperative dispatcher loop: it multiplexes transport
// events and user actions, handling exactly one at a time, alongside
// an errgroup-supervised TTL-sweep goroutine. It returns when ctx is
// cancelled or a Terminate action is received.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.sweepLoop(ctx)
	})

	g.Go(func() error {
		defer close(e.eventC)
		defer cancel() // stop sweepLoop once the dispatcher returns
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-e.trans.Events():
				if !ok {
					return nil
				}
				e.handleTransportEvent(ev)
			case act, ok := <-e.actionC:
				if !ok {
					return nil
				}
				if _, isTerminate := act.(Terminate); isTerminate {
					return nil
				}
				e.handleAction(act)
			}
		}
	})

	return g.Wait()
}

// sweepLoop periodically sweeps the TTL-bounded filters' accumulator,
// since filter.TTLSet/TTLCache already self-clean but the accumulator
// does not run its own goroutine (it is swept from here deliberately,
// so a single background task owns all of the engine's janitorial
// work instead of spreading timers across packages).
func (e *Engine) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.accumulator.Sweep()
		}
	}
}

// emitEvent delivers ev upward, dropping it with a log warning if the
// user-facing layer isn't draining the channel — matching the
// liveness-over-delivery policy of §7 (errors are absorbed, not fatal
// to the dispatcher).
func (e *Engine) emitEvent(ev Event) {
	select {
	case e.eventC <- ev:
	default:
		e.log.Warn("event channel full, dropping event", logger.String("kind", string(ev.Kind)))
	}
}

// signAndWrap builds a SignedMessage over content, src, dst signed with
// our own identity.
func (e *Engine) signAndWrap(src, dst identity.Authority, content message.Content, canonicalize func(message.RoutingMessage) []byte) (message.SignedMessage, error) {
	rm := message.RoutingMessage{Src: src, Dst: dst, Content: content}
	sig := ed25519.Sign(e.id.Signing, canonicalize(rm))
	return message.SignedMessage{Content: rm, PublicId: e.id.PublicId(), Signature: sig}, nil
}

// sendDirect encodes and sends a DirectMessage over conn.
func (e *Engine) sendDirect(conn transport.ConnID, dm *message.DirectMessage) error {
	b, err := codec.EncodeMessage(dm)
	if err != nil {
		return err
	}
	return e.trans.Send(conn, b)
}

// sendHop wraps signed in a HopMessage signed with our identity and
// sends it over conn.
func (e *Engine) sendHop(conn transport.ConnID, signed message.SignedMessage, canonicalize func(message.SignedMessage) []byte) error {
	sig := ed25519.Sign(e.id.Signing, canonicalize(signed))
	hop := &message.HopMessage{Content: signed, Name: e.self, Signature: sig}
	b, err := codec.EncodeMessage(hop)
	if err != nil {
		return err
	}
	return e.trans.Send(conn, b)
}

// routingtableConnID converts a transport connection handle to the
// routing table's own ConnID type. The two are both opaque uint64s
// assigned by the transport; this conversion exists purely so the two
// packages don't need to share a type.
func routingtableConnID(c transport.ConnID) routingtable.ConnID {
	return routingtable.ConnID(c)
}

// transportConnID converts the other direction.
func transportConnID(c routingtable.ConnID) transport.ConnID {
	return transport.ConnID(c)
}
