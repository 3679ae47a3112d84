package oauth

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"editron/pkg/logging"
)

// portScanRange is how many ports are tried from the configured start
// before giving up with ErrNoPortAvailable.
const portScanRange = 100

// shutdownGrace is how long the listener stays up after resolving, so the
// in-flight confirmation page reaches the browser before the socket closes.
const shutdownGrace = 2 * time.Second

// callbackPath is the loopback redirect path registered with the backend.
const callbackPath = "/auth/callback"

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

//go:embed templates/callback_invalid.html
var callbackInvalidHTML string

// Listener is the loopback-listener callback transport: a transient HTTP
// server on 127.0.0.1 that catches a single OAuth redirect and is torn down
// after one callback or timeout. Exactly one listener is active per login
// attempt; beginning a new attempt stops any earlier listener first.
type Listener struct {
	portStart int
	timeout   time.Duration
	grace     time.Duration

	mu     sync.Mutex
	active *listenerState
}

type listenerState struct {
	server   *http.Server
	listener net.Listener
	results  chan callbackResult

	mu       sync.Mutex
	resolved bool

	stopOnce sync.Once
}

// NewListener creates the loopback transport. Ports are scanned upward from
// portStart; timeout bounds the wait for the callback.
func NewListener(portStart int, timeout time.Duration) *Listener {
	return &Listener{
		portStart: portStart,
		timeout:   timeout,
		grace:     shutdownGrace,
	}
}

// MaterialKind returns MaterialState: the loopback flow correlates via the
// anti-CSRF state parameter.
func (l *Listener) MaterialKind() MaterialKind {
	return MaterialState
}

// Begin binds the first free port in the scan range and starts serving the
// callback endpoint. The previous listener, if any, is stopped first.
func (l *Listener) Begin(ctx context.Context) (*Receipt, error) {
	l.mu.Lock()
	if prior := l.active; prior != nil {
		prior.stop()
		l.active = nil
	}
	l.mu.Unlock()

	listener, port, err := l.bind()
	if err != nil {
		return nil, err
	}

	state := &listenerState{
		listener: listener,
		results:  make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		l.handleCallback(state, w, r)
	})
	state.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := state.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			state.deliver(callbackResult{err: err})
		}
	}()

	l.mu.Lock()
	l.active = state
	l.mu.Unlock()

	logging.Info("OAuth", "Callback listener started on port %d", port)

	return &Receipt{
		RedirectURI: fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath),
		Port:        port,
		results:     state.results,
	}, nil
}

// Await races the callback against the configured timeout. Whichever
// resolves first wins; the listener is torn down on every path so the bound
// port is never leaked.
func (l *Listener) Await(ctx context.Context, receipt *Receipt) (string, error) {
	defer l.Stop()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case result := <-receipt.results:
		if result.err != nil {
			return "", result.err
		}
		return result.code, nil
	case <-timer.C:
		logging.Warn("OAuth", "Callback listener timed out after %v", l.timeout)
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop tears down the active listener, if any. Safe to call repeatedly.
func (l *Listener) Stop() {
	l.mu.Lock()
	state := l.active
	l.active = nil
	l.mu.Unlock()

	if state != nil {
		state.stop()
	}
}

// bind scans the port range for the first free loopback port.
func (l *Listener) bind() (net.Listener, int, error) {
	for port := l.portStart; port < l.portStart+portScanRange; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: scanned %d-%d", ErrNoPortAvailable, l.portStart, l.portStart+portScanRange-1)
}

// handleCallback processes one inbound redirect. A request carrying neither
// code nor error renders a diagnostic page and keeps the listener waiting;
// a resolving request is accepted exactly once.
func (l *Listener) handleCallback(state *listenerState, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	code := query.Get("code")
	errParam := query.Get("error")

	if code == "" && errParam == "" {
		logging.Warn("OAuth", "Callback received without code or error")
		writePage(w, callbackInvalidHTML)
		return
	}

	state.mu.Lock()
	if state.resolved {
		state.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	state.resolved = true
	state.mu.Unlock()

	if errParam != "" {
		logging.Warn("OAuth", "Callback reported provider error: %s", errParam)
		state.deliver(callbackResult{err: &RedirectError{Reason: errParam}})
		writePage(w, callbackErrorHTML)
	} else {
		logging.Info("OAuth", "Authorization code received")
		state.deliver(callbackResult{code: code})
		writePage(w, callbackSuccessHTML)
	}

	// Keep the socket open briefly so the page above reaches the browser.
	grace := l.grace
	go func() {
		time.Sleep(grace)
		state.stop()
	}()
}

func (s *listenerState) deliver(result callbackResult) {
	select {
	case s.results <- result:
	default:
	}
}

func (s *listenerState) stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func writePage(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
