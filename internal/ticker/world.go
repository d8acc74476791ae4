package ticker

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

const unrestProsperityFloor = 30.0

// TickWorldMinute advances world-level resources, prosperity, and unrest
// by one game-minute and returns any world_awareness events raised by
// one-shot threshold crossings (spec.md §4.3).
func (t *Ticker) TickWorldMinute(w *worldstate.State, now time.Time) []Event {
	var events []Event

	if !w.IsFrozen("resources.food", now) {
		farmingTech := w.Technology["farming"]
		production := farmingTech * w.Environment.Fertility * 0.12
		consumption := 0.025 * float64(w.Population)
		w.AddResource("food", production-consumption)
	}

	prosperity := 0.99*w.Economy.Prosperity + 0.5*minFloat(1, w.Resources["food"]/(10*float64(maxInt(w.Population, 1))))
	w.Economy.Prosperity = clampStatus(prosperity)

	if w.Economy.Prosperity < unrestProsperityFloor {
		w.Governance.Unrest = clampStatus(w.Governance.Unrest + 0.1)
	} else {
		w.Governance.Unrest = clampStatus(w.Governance.Unrest - 0.05)
	}

	events = append(events, t.worldAlerts(w)...)
	return events
}

func (t *Ticker) worldAlerts(w *worldstate.State) []Event {
	var events []Event

	foodCrisis := w.Resources["food"] < 5*float64(maxInt(w.Population, 1))
	if foodCrisis && !w.Alerts.FoodCrisis {
		w.Alerts.FoodCrisis = true
		events = append(events, Event{Type: EventWorldAwareness, Text: "Food stores are running dangerously low.", Importance: 8})
	} else if !foodCrisis && w.Alerts.FoodCrisis {
		w.Alerts.FoodCrisis = false
		events = append(events, Event{Type: EventWorldAwareness, Text: "The food crisis has passed.", Importance: 4})
	}

	unrestHigh := w.Governance.Unrest > 60
	if unrestHigh && !w.Alerts.Unrest {
		w.Alerts.Unrest = true
		events = append(events, Event{Type: EventWorldAwareness, Text: "Unrest is spreading through the community.", Importance: 7})
	} else if !unrestHigh && w.Alerts.Unrest {
		w.Alerts.Unrest = false
		events = append(events, Event{Type: EventWorldAwareness, Text: "Tensions in the community have eased.", Importance: 3})
	}

	prosperityHigh := w.Economy.Prosperity > 75
	if prosperityHigh && !w.Alerts.Prosperity {
		w.Alerts.Prosperity = true
		events = append(events, Event{Type: EventWorldAwareness, Text: "The community is thriving.", Importance: 4})
	} else if !prosperityHigh && w.Alerts.Prosperity {
		w.Alerts.Prosperity = false
	}

	return events
}

// CollectTaxes runs the once-per-game-day tax pass over every agent
// (spec.md §4.3).
func (t *Ticker) CollectTaxes(w *worldstate.State, agents []*agent.State, gt gametime.Time) {
	for _, a := range agents {
		wealth := a.Status["wealth"]
		tax := minFloat(wealth*w.Economy.TaxRate*0.2, wealth*0.05)
		if tax <= 0 {
			continue
		}
		a.AdjustWealth(-tax, "tax collection", gt)
		w.Economy.Treasury += tax
	}
	slog.Info("tax collection complete", "day", gt.Day, "treasury", humanize.Commaf(w.Economy.Treasury))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
