package usecase

import (
	"math"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// ATR multiples for the stop and the three take-profit tiers.
const (
	stopATRMult = 1.5
	tp1ATRMult  = 2.0
	tp2ATRMult  = 3.5
	tp3ATRMult  = 5.0

	// minRiskReward gates signal emission, measured at the final tier.
	minRiskReward = 2.0
)

// Levels holds the fully parameterized price levels for a signal.
type Levels struct {
	Entry       float64
	StopLoss    float64
	TakeProfit1 float64
	TakeProfit2 float64
	TakeProfit3 float64
	RiskReward  float64
}

// BuildLevels derives stop and take-profit tiers from the ATR around the
// entry price. Returns ok=false when the ATR is unavailable or the geometry
// fails the risk:reward gate.
func BuildLevels(direction domain.Direction, entry float64, atr *float64) (Levels, bool) {
	if entry <= 0 || atr == nil || *atr <= 0 {
		return Levels{}, false
	}
	vol := *atr

	var lv Levels
	lv.Entry = entry
	if direction == domain.Long {
		lv.StopLoss = entry - stopATRMult*vol
		lv.TakeProfit1 = entry + tp1ATRMult*vol
		lv.TakeProfit2 = entry + tp2ATRMult*vol
		lv.TakeProfit3 = entry + tp3ATRMult*vol
	} else {
		lv.StopLoss = entry + stopATRMult*vol
		lv.TakeProfit1 = entry - tp1ATRMult*vol
		lv.TakeProfit2 = entry - tp2ATRMult*vol
		lv.TakeProfit3 = entry - tp3ATRMult*vol
	}

	risk := math.Abs(entry - lv.StopLoss)
	if risk == 0 || lv.StopLoss <= 0 || lv.TakeProfit3 <= 0 {
		return Levels{}, false
	}
	lv.RiskReward = math.Abs(lv.TakeProfit3-entry) / risk
	if lv.RiskReward < minRiskReward {
		return Levels{}, false
	}

	return lv, true
}
