package usecase

import (
	"fmt"
	"math"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/infrastructure/indicators"
)

// Backtest defaults. Lookback matches the live scorer's minimum history;
// horizon is how many candles a simulated trade may stay open.
const (
	defaultBacktestLookback = MinScoringCandles
	defaultBacktestHorizon  = 50
)

// BacktestConfig parameterizes a replay run.
type BacktestConfig struct {
	Lookback int `json:"lookback"`
	Horizon  int `json:"horizon"`
}

func (c *BacktestConfig) applyDefaults() {
	if c.Lookback < defaultBacktestLookback {
		c.Lookback = defaultBacktestLookback
	}
	if c.Horizon <= 0 {
		c.Horizon = defaultBacktestHorizon
	}
}

// BacktestTrade is one simulated signal and its resolution.
type BacktestTrade struct {
	Index     int                  `json:"index"`
	Direction domain.Direction     `json:"direction"`
	Entry     float64              `json:"entry"`
	Exit      float64              `json:"exit"`
	Score     int                  `json:"score"`
	Result    domain.OutcomeResult `json:"result"`
	ReturnPct float64              `json:"returnPct"`
}

// DirectionStats aggregates trades on one side.
type DirectionStats struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

// BucketStats aggregates trades by raw score range.
type BucketStats struct {
	MinScore int     `json:"minScore"`
	MaxScore int     `json:"maxScore"`
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"winRate"`
}

// BacktestReport is the accumulated result of a replay. It is built by
// folding trades into a fresh value; nothing about a run is stored outside
// the report itself.
type BacktestReport struct {
	Candles    int                                 `json:"candles"`
	Trades     []BacktestTrade                     `json:"trades"`
	Total      int                                 `json:"total"`
	Wins       int                                 `json:"wins"`
	Losses     int                                 `json:"losses"`
	WinRate    float64                             `json:"winRate"`
	ByDir      map[domain.Direction]DirectionStats `json:"byDirection"`
	ByBucket   []BucketStats                       `json:"byBucket"`
	BestTrade  *BacktestTrade                      `json:"bestTrade,omitempty"`
	WorstTrade *BacktestTrade                      `json:"worstTrade,omitempty"`
}

func newBacktestReport(candles int) BacktestReport {
	bounds := [][2]int{{0, 20}, {20, 40}, {40, 60}, {60, 80}, {80, 101}}
	buckets := make([]BucketStats, 0, len(bounds))
	for _, b := range bounds {
		buckets = append(buckets, BucketStats{MinScore: b[0], MaxScore: b[1]})
	}
	return BacktestReport{
		Candles:  candles,
		Trades:   []BacktestTrade{},
		ByDir:    make(map[domain.Direction]DirectionStats, 2),
		ByBucket: buckets,
	}
}

// fold merges one resolved trade into the report and returns the updated
// report. All accumulation happens through this reducer.
func fold(r BacktestReport, t BacktestTrade) BacktestReport {
	r.Trades = append(r.Trades, t)
	r.Total++
	if t.Result == domain.OutcomeWin {
		r.Wins++
	} else {
		r.Losses++
	}
	r.WinRate = float64(r.Wins) / float64(r.Total)

	ds := r.ByDir[t.Direction]
	ds.Trades++
	if t.Result == domain.OutcomeWin {
		ds.Wins++
	}
	ds.WinRate = float64(ds.Wins) / float64(ds.Trades)
	r.ByDir[t.Direction] = ds

	for i := range r.ByBucket {
		b := &r.ByBucket[i]
		if t.Score < b.MinScore || t.Score >= b.MaxScore {
			continue
		}
		b.Trades++
		if t.Result == domain.OutcomeWin {
			b.Wins++
		}
		b.WinRate = float64(b.Wins) / float64(b.Trades)
		break
	}

	if r.BestTrade == nil || t.ReturnPct > r.BestTrade.ReturnPct {
		cp := t
		r.BestTrade = &cp
	}
	if r.WorstTrade == nil || t.ReturnPct < r.WorstTrade.ReturnPct {
		cp := t
		r.WorstTrade = &cp
	}
	return r
}

// BacktestService replays the live scoring rules over historical candles.
type BacktestService struct {
	scorer *Scorer
}

func NewBacktestService(scorer *Scorer) *BacktestService {
	return &BacktestService{scorer: scorer}
}

// Run replays the scorer over the candle series. At each index the scorer
// sees only the window ending there, so no decision uses future data.
// After an accepted trade the cursor jumps past its resolution candle.
func (b *BacktestService) Run(candles []domain.Candle, cfg BacktestConfig) (BacktestReport, error) {
	cfg.applyDefaults()
	if len(candles) < cfg.Lookback+cfg.Horizon {
		return BacktestReport{}, fmt.Errorf("%w: need %d candles, got %d",
			domain.ErrInsufficientData, cfg.Lookback+cfg.Horizon, len(candles))
	}

	report := newBacktestReport(len(candles))

	for i := cfg.Lookback; i <= len(candles)-cfg.Horizon; i++ {
		window := candles[:i]
		snap := indicators.Snapshot(window)
		res, err := b.scorer.Score(window, snap)
		if err != nil || !res.Accepted {
			continue
		}
		lv, ok := BuildLevels(res.Direction, snap.LastClose, snap.ATR)
		if !ok {
			continue
		}

		trade, resolvedAt := resolveTrade(candles, i, cfg.Horizon, res, lv)
		report = fold(report, trade)
		i = resolvedAt
	}
	return report, nil
}

// resolveTrade scans forward from the entry index for a TP3 or stop touch.
// A trade that survives the whole horizon closes at the final candle and
// counts as a loss.
func resolveTrade(candles []domain.Candle, entryIdx, horizon int, res ScoreResult, lv Levels) (BacktestTrade, int) {
	trade := BacktestTrade{
		Index:     entryIdx,
		Direction: res.Direction,
		Entry:     lv.Entry,
		Score:     res.Points,
	}

	end := entryIdx + horizon
	for j := entryIdx; j < end && j < len(candles); j++ {
		c := candles[j]
		if res.Direction == domain.Long {
			if c.Low <= lv.StopLoss {
				return finishTrade(trade, lv.StopLoss, domain.OutcomeLoss), j
			}
			if c.High >= lv.TakeProfit3 {
				return finishTrade(trade, lv.TakeProfit3, domain.OutcomeWin), j
			}
		} else {
			if c.High >= lv.StopLoss {
				return finishTrade(trade, lv.StopLoss, domain.OutcomeLoss), j
			}
			if c.Low <= lv.TakeProfit3 {
				return finishTrade(trade, lv.TakeProfit3, domain.OutcomeWin), j
			}
		}
	}

	last := end - 1
	if last >= len(candles) {
		last = len(candles) - 1
	}
	return finishTrade(trade, candles[last].Close, domain.OutcomeLoss), last
}

func finishTrade(t BacktestTrade, exit float64, result domain.OutcomeResult) BacktestTrade {
	t.Exit = exit
	t.Result = result
	if t.Entry > 0 {
		move := (exit - t.Entry) / t.Entry * 100
		if t.Direction == domain.Short {
			move = -move
		}
		t.ReturnPct = math.Round(move*100) / 100
	}
	return t
}
