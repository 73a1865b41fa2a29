package usecase

import "github.com/herberelias/cripto-signals/internal/domain"

// Pattern is a recognized candlestick formation at the end of the window.
type Pattern struct {
	Name      string
	Direction domain.Direction
}

// detectPatterns inspects the last three candles for the classic reversal
// and continuation formations. Single-candle patterns additionally require
// the right preceding context (hammer after a decline, shooting star after
// a rise).
func detectPatterns(candles []domain.Candle) []Pattern {
	n := len(candles)
	if n < 8 {
		return nil
	}

	var found []Pattern
	last := candles[n-1]
	prev := candles[n-2]

	if isHammer(last) && priorDrift(candles) < 0 {
		found = append(found, Pattern{Name: "hammer reversal", Direction: domain.Long})
	}
	if isShootingStar(last) && priorDrift(candles) > 0 {
		found = append(found, Pattern{Name: "shooting star reversal", Direction: domain.Short})
	}

	if isEngulfing(prev, last) {
		if last.Bullish() {
			found = append(found, Pattern{Name: "bullish engulfing", Direction: domain.Long})
		} else {
			found = append(found, Pattern{Name: "bearish engulfing", Direction: domain.Short})
		}
	}

	if dir, ok := threeInARow(candles[n-3:]); ok {
		if dir == domain.Long {
			found = append(found, Pattern{Name: "three white soldiers", Direction: domain.Long})
		} else {
			found = append(found, Pattern{Name: "three black crows", Direction: domain.Short})
		}
	}

	return found
}

// priorDrift measures the close-to-close move over the five candles before
// the pattern candle. Sign gives the preceding trend direction.
func priorDrift(candles []domain.Candle) float64 {
	n := len(candles)
	return candles[n-2].Close - candles[n-7].Close
}

func isHammer(c domain.Candle) bool {
	r := c.Range()
	if r == 0 {
		return false
	}
	body := c.Body()
	return c.LowerWick() >= 2*body && c.UpperWick() <= 0.5*body && body >= 0.1*r
}

func isShootingStar(c domain.Candle) bool {
	r := c.Range()
	if r == 0 {
		return false
	}
	body := c.Body()
	return c.UpperWick() >= 2*body && c.LowerWick() <= 0.5*body && body >= 0.1*r
}

// isEngulfing requires opposite-colored candles where the second body fully
// covers the first.
func isEngulfing(prev, cur domain.Candle) bool {
	if prev.Bullish() == cur.Bullish() {
		return false
	}
	if cur.Bullish() {
		return cur.Open <= prev.Close && cur.Close >= prev.Open
	}
	return cur.Open >= prev.Close && cur.Close <= prev.Open
}

// threeInARow detects three consecutive same-color candles with rising
// (soldiers) or falling (crows) closes.
func threeInARow(last3 []domain.Candle) (domain.Direction, bool) {
	if len(last3) != 3 {
		return "", false
	}
	a, b, c := last3[0], last3[1], last3[2]

	if a.Bullish() && b.Bullish() && c.Bullish() && b.Close > a.Close && c.Close > b.Close {
		return domain.Long, true
	}
	if !a.Bullish() && !b.Bullish() && !c.Bullish() && b.Close < a.Close && c.Close < b.Close {
		return domain.Short, true
	}
	return "", false
}
