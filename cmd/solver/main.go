package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	solverconfig "github.com/cowbatch/solver/cmd/solver/config"
	"github.com/cowbatch/solver/domain"
	"github.com/cowbatch/solver/solver"
)

func main() {
	rootLogHandler := slog.NewJSONHandler(os.Stdout, nil)
	rootLogger := slog.New(rootLogHandler)
	prometheusRegistry := prometheus.DefaultRegisterer

	close := func() {
		os.Exit(1)
	}

	file, err := loadConfig()
	if err != nil {
		rootLogger.Error("failed to load configuration", "error", err)
		close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := solver.NewEngine(file.SolverConfig(), prometheusRegistry)

	if file.MetricsAddr != "" {
		go serveMetrics(ctx, rootLogger, file.MetricsAddr)
	}

	orders, pools, err := readBatch(os.Stdin)
	if err != nil {
		rootLogger.Error("failed to read order batch", "error", err)
		close()
	}

	solution, err := engine.Solve(ctx, orders, pools)
	if err != nil {
		rootLogger.Error("solve failed", "error", err)
		close()
	}
	if solution == nil {
		rootLogger.Info("no profitable solution found")
		return
	}

	if err := json.NewEncoder(os.Stdout).Encode(solutionView(solution)); err != nil {
		rootLogger.Error("failed to encode solution", "error", err)
		close()
	}
}

func loadConfig() (*solverconfig.File, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("loading configuration from: %s", *configPath)
	return solverconfig.LoadConfig(*configPath)
}

func serveMetrics(ctx context.Context, logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "error", err)
	}
}

// batchFile is the JSON shape of the orders+pools batch the CLI reads
// from stdin: one auction round's worth of inputs to the solve pipeline.
type batchFile struct {
	Orders []orderView `json:"orders"`
	Pools  []poolView  `json:"pools"`
}

type orderView struct {
	ID         common.Hash    `json:"id"`
	Owner      common.Address `json:"owner"`
	SellToken  common.Address `json:"sell_token"`
	BuyToken   common.Address `json:"buy_token"`
	SellAmount string         `json:"sell_amount"`
	BuyAmount  string         `json:"buy_amount"`
	FeeAmount  string         `json:"fee_amount"`
	ValidTo    uint32         `json:"valid_to"`
	Kind       string         `json:"kind"`
}

type poolView struct {
	Address  common.Address `json:"address"`
	Variant  string         `json:"variant"`
	TokenA   common.Address `json:"token_a"`
	TokenB   common.Address `json:"token_b"`
	ReserveA string         `json:"reserve_a"`
	ReserveB string         `json:"reserve_b"`
	FeeBps   uint16         `json:"fee_bps"`
	GasCost  uint64         `json:"gas_cost"`
}

func readBatch(r *os.File) ([]domain.Order, []domain.LiquidityPool, error) {
	var batch batchFile
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, nil, fmt.Errorf("decoding batch: %w", err)
	}

	orders := make([]domain.Order, 0, len(batch.Orders))
	for _, ov := range batch.Orders {
		sellAmount, err := parseUint256(ov.SellAmount)
		if err != nil {
			return nil, nil, fmt.Errorf("order %s: sell_amount: %w", ov.ID, err)
		}
		buyAmount, err := parseUint256(ov.BuyAmount)
		if err != nil {
			return nil, nil, fmt.Errorf("order %s: buy_amount: %w", ov.ID, err)
		}
		feeAmount, err := parseUint256(ov.FeeAmount)
		if err != nil {
			return nil, nil, fmt.Errorf("order %s: fee_amount: %w", ov.ID, err)
		}
		orders = append(orders, domain.Order{
			ID:         ov.ID,
			Owner:      ov.Owner,
			SellToken:  ov.SellToken,
			BuyToken:   ov.BuyToken,
			SellAmount: sellAmount,
			BuyAmount:  buyAmount,
			FeeAmount:  feeAmount,
			ValidTo:    ov.ValidTo,
			Kind:       orderKindFromString(ov.Kind),
			Status:     domain.StatusOpen,
		})
	}

	pools := make([]domain.LiquidityPool, 0, len(batch.Pools))
	for _, pv := range batch.Pools {
		reserveA, err := parseUint256(pv.ReserveA)
		if err != nil {
			return nil, nil, fmt.Errorf("pool %s: reserve_a: %w", pv.Address, err)
		}
		reserveB, err := parseUint256(pv.ReserveB)
		if err != nil {
			return nil, nil, fmt.Errorf("pool %s: reserve_b: %w", pv.Address, err)
		}
		pools = append(pools, domain.LiquidityPool{
			Address:  pv.Address,
			Variant:  poolVariantFromString(pv.Variant),
			TokenA:   pv.TokenA,
			TokenB:   pv.TokenB,
			ReserveA: reserveA,
			ReserveB: reserveB,
			FeeBps:   pv.FeeBps,
			GasCost:  pv.GasCost,
		})
	}

	return orders, pools, nil
}

func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func orderKindFromString(s string) domain.OrderKind {
	if s == "buy" {
		return domain.Buy
	}
	return domain.Sell
}

func poolVariantFromString(s string) domain.PoolVariant {
	switch s {
	case "uniswap_v3":
		return domain.UniswapV3
	case "balancer":
		return domain.Balancer
	case "curve":
		return domain.Curve
	case "constant_product":
		return domain.ConstantProduct
	default:
		return domain.UniswapV2
	}
}

type solutionJSON struct {
	Orders  []common.Hash `json:"orders"`
	GasCost uint64        `json:"gas_cost"`
	Surplus float64       `json:"surplus"`
	Score   float64       `json:"score"`
	Trades  int           `json:"trade_count"`
}

func solutionView(s *domain.Solution) solutionJSON {
	return solutionJSON{
		Orders:  s.Orders,
		GasCost: s.GasCost,
		Surplus: s.Surplus,
		Score:   s.Score,
		Trades:  len(s.Settlement.Trades),
	}
}
