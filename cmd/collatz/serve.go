package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ardanlabs/collatz/collatz"
	"github.com/ardanlabs/collatz/store"
)

var (
	computeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collatz_compute_total",
		Help: "Total computations by outcome",
	}, []string{"outcome"})

	computeSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "collatz_compute_steps",
		Help:    "Trajectory length of served results",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve results over HTTP and gRPC",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	serveAddr string
	grpcAddr  string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address, empty to disable (overrides config)")
}

// response is the body of a /collatz reply.
type response struct {
	Result   *collatz.Result `json:"result"`
	Factored string          `json:"factored"`
	Numeric  string          `json:"numeric"`
}

// collatzHandler serves results, caching them in db when it is set.
type collatzHandler struct {
	m         sync.Mutex
	db        *store.DB
	stepLimit int
	logger    *slog.Logger
}

// maxDigits caps the length of m accepted from clients.
const maxDigits = 4096

var errTooLong = errors.New("m has too many digits")

// parseM parses m as sent by a client.
func parseM(s string) (*big.Int, error) {
	if len(s) > maxDigits {
		return nil, fmt.Errorf("%d characters, max %d: %w", len(s), maxDigits, errTooLong)
	}
	return collatz.ParseInt(s)
}

// outcome is the metrics label of a failed computation.
func outcome(err error) string {
	switch {
	case errors.Is(err, collatz.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, collatz.ErrStepLimitExceeded):
		return "limit"
	}
	return "error"
}

// ServeHTTP handles GET /collatz?m=<m>
func (h *collatzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET", http.StatusMethodNotAllowed)
		return
	}

	m, err := parseM(r.URL.Query().Get("m"))
	if err != nil {
		computeTotal.WithLabelValues("invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.result(r.Context(), m)
	if err != nil {
		kind := outcome(err)
		computeTotal.WithLabelValues(kind).Inc()
		switch kind {
		case "invalid":
			http.Error(w, err.Error(), http.StatusBadRequest)
		case "limit":
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("compute", "m", m, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	computeSteps.Observe(float64(res.Steps()))

	resp := response{
		Result:   res,
		Factored: res.FactoredEquation(),
		Numeric:  res.NumericEquation(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode", "m", m, "error", err)
	}
}

// result returns the stored result for m or computes it, goroutine safe.
// The lock guards db only, computations run concurrently.
func (h *collatzHandler) result(ctx context.Context, m *big.Int) (*collatz.Result, error) {
	if h.db != nil {
		h.m.Lock()
		res, err := h.db.Get(ctx, m)
		h.m.Unlock()

		if err == nil {
			computeTotal.WithLabelValues("cached").Inc()
			return res, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	res, err := collatz.ComputeLimit(m, h.stepLimit)
	if err != nil {
		return nil, err
	}
	computeTotal.WithLabelValues("ok").Inc()

	if h.db != nil {
		h.m.Lock()
		err := h.db.Add(res)
		h.m.Unlock()
		if err != nil {
			h.logger.Warn("store", "m", m, "error", err)
		}
	}
	return res, nil
}

func newMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/collatz", h)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	db, err := store.Open(cfg.DBFile)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected", "db", cfg.DBFile)

	h := &collatzHandler{
		db:        db,
		stepLimit: cfg.StepLimit,
		logger:    logger,
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(h),
		ReadHeaderTimeout: 5 * time.Second,
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	rpcAddr := cfg.GRPCAddr
	if grpcAddr != "" {
		rpcAddr = grpcAddr
	}
	if rpcAddr != "" {
		lis, err := net.Listen("tcp", rpcAddr)
		if err != nil {
			srv.Close()
			return err
		}
		gs := newGRPCServer(h)
		defer gs.GracefulStop()
		go func() {
			logger.Info("grpc server listening", "addr", rpcAddr)
			errCh <- gs.Serve(lis)
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown waits for in-flight handlers, db is closed after it returns
	return srv.Shutdown(shutdownCtx)
}
