package consequence

import (
	"fmt"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
)

// The hard-coded consequence ladder (spec.md §4.7): used when WorldDef
// has no matching action for the goal kind. Deltas are fixed rather
// than schema-driven so these reproduce deterministically for
// regression testing.

func Eat(a *agent.State, gt gametime.Time) Result {
	a.Needs["hunger"] = clamp(a.Needs["hunger"]-0.4, 0, 1)
	a.Status["energy"] = clamp(a.Status["energy"]+5, 0, 100)
	return Result{Changes: []string{a.Name + " ate a meal"}}
}

const foodPrice = 2.0

func BuyFood(a *agent.State, gt gametime.Time) Result {
	if a.Status["wealth"] < foodPrice {
		return Result{Changes: []string{a.Name + " could not afford food"}}
	}
	a.AdjustWealth(-foodPrice, "buy_food", gt)
	a.Needs["hunger"] = clamp(a.Needs["hunger"]-0.4, 0, 1)
	return Result{
		Changes:      []string{a.Name + " bought food"},
		Transactions: []agent.Transaction{{When: gt, Delta: -foodPrice, Reason: "buy_food"}},
	}
}

func BuyItem(a *agent.State, itemName string, price float64, gt gametime.Time) Result {
	if a.Status["wealth"] < price {
		return Result{Changes: []string{a.Name + " could not afford " + itemName}}
	}
	a.AdjustWealth(-price, "buy_item:"+itemName, gt)
	a.AddItem(itemName, "good", 1)
	return Result{
		Changes:      []string{a.Name + " bought " + itemName},
		Transactions: []agent.Transaction{{When: gt, Delta: -price, Reason: "buy_item:" + itemName}},
	}
}

func SellItem(a *agent.State, itemName string, price float64, quantity int, gt gametime.Time) Result {
	removed := a.RemoveItem(itemName, quantity)
	if removed == 0 {
		return Result{Changes: []string{a.Name + " had no " + itemName + " to sell"}}
	}
	total := price * float64(removed)
	a.AdjustWealth(total, "sell_item:"+itemName, gt)
	return Result{
		Changes:      []string{fmt.Sprintf("%s sold %d %s", a.Name, removed, itemName)},
		Transactions: []agent.Transaction{{When: gt, Delta: total, Reason: "sell_item:" + itemName}},
	}
}

func Sleep(a *agent.State, gt gametime.Time) Result {
	a.Needs["rest"] = clamp(a.Needs["rest"]-0.6, 0, 1)
	a.Status["energy"] = clamp(a.Status["energy"]+30, 0, 100)
	return Result{Changes: []string{a.Name + " slept"}}
}

// Socialize is also the hard-coded fallback for an unparseable oracle
// consequence response (spec.md §4.7).
func Socialize(a *agent.State, target *agent.State, gt gametime.Time) Result {
	a.Needs["social"] = clamp(a.Needs["social"]-0.3, 0, 1)
	a.Status["happiness"] = clamp(a.Status["happiness"]+3, 0, 100)
	changes := []string{a.Name + " socialized"}
	if target != nil {
		a.TouchRelationship(target.Name, 0.02, 0.03, 0)
		target.TouchRelationship(a.Name, 0.02, 0.03, 0)
		changes = []string{a.Name + " socialized with " + target.Name}
	}
	return Result{Changes: changes}
}

func Work(a *agent.State, primarySkill string, gt gametime.Time) Result {
	a.Needs["purpose"] = clamp(a.Needs["purpose"]-0.35, 0, 1)
	a.Status["energy"] = clamp(a.Status["energy"]-10, 0, 100)
	a.AdjustWealth(8, "work", gt)
	if primarySkill != "" {
		a.Skills[primarySkill] = clamp(a.Skills[primarySkill]+0.02, 0, 10)
	}
	return Result{
		Changes:      []string{a.Name + " worked"},
		Transactions: []agent.Transaction{{When: gt, Delta: 8, Reason: "work"}},
	}
}

// Flirt attempts partnership formation per the thresholds named in
// spec.md §4.7 ("attraction > 0.75 / 0.6, trust > 0.6"). witnesses
// receives the pairing announcement in its knowledge set once a
// partnership forms (spec.md §8 Scenario 2).
func Flirt(a, target *agent.State, witnesses []*agent.State, gt gametime.Time) Result {
	a.Needs["romance"] = clamp(a.Needs["romance"]-0.25, 0, 1)
	ar := a.TouchRelationship(target.Name, 0.01, 0.02, 0.05)
	tr := target.TouchRelationship(a.Name, 0.01, 0.02, 0.02)

	changes := []string{a.Name + " flirted with " + target.Name}
	if ar.Attraction > 0.75 && tr.Attraction > 0.6 && ar.Trust > 0.6 && a.Partner == "" && target.Partner == "" {
		a.Partner = target.Name
		target.Partner = a.Name
		changes = append(changes, a.Name+" and "+target.Name+" became partners")

		news := a.Name + " and " + target.Name + " became partners"
		a.LearnFact(news)
		target.LearnFact(news)
		for _, witness := range witnesses {
			witness.LearnFact(news)
		}
	}
	return Result{Changes: changes}
}

func GiveGift(a, target *agent.State, giftValue float64, gt gametime.Time) Result {
	if a.Status["wealth"] < giftValue {
		return Result{Changes: []string{a.Name + " could not afford a gift"}}
	}
	a.AdjustWealth(-giftValue, "give_gift", gt)
	a.TouchRelationship(target.Name, 0.05, 0.03, 0)
	target.TouchRelationship(a.Name, 0.05, 0.03, 0.02)
	return Result{
		Changes:      []string{a.Name + " gave a gift to " + target.Name},
		Transactions: []agent.Transaction{{When: gt, Delta: -giftValue, Reason: "give_gift"}},
	}
}

func Betray(a, target *agent.State, gt gametime.Time) Result {
	ar := a.RelationshipWith(target.Name)
	ar.Trust = clamp(ar.Trust-0.3, 0, 1)
	ar.Rivalry = clamp(ar.Rivalry+0.3, 0, 1)
	agent.Relabel(ar)

	tr := target.RelationshipWith(a.Name)
	tr.Trust = clamp(tr.Trust-0.3, 0, 1)
	tr.Rivalry = clamp(tr.Rivalry+0.3, 0, 1)
	tr.Fear = clamp(tr.Fear+0.15, 0, 1)
	agent.Relabel(tr)

	target.Status["reputation"] = clamp(target.Status["reputation"]+2, 0, 100) // sympathy bump
	a.Status["reputation"] = clamp(a.Status["reputation"]-10, 0, 100)
	return Result{Changes: []string{a.Name + " betrayed " + target.Name}}
}

func Discover(a *agent.State, skill string, gt gametime.Time) Result {
	a.Skills[skill] = clamp(a.Skills[skill]+0.1, 0, 10)
	a.Status["reputation"] = clamp(a.Status["reputation"]+3, 0, 100)
	return Result{Changes: []string{a.Name + " made a discovery"}}
}

// BecomeLeader only adjusts the agent; the caller is responsible for
// assigning worldstate.State.Governance.Leader, since that's a single
// world-scoped field rather than a per-agent consequence.
func BecomeLeader(a *agent.State, gt gametime.Time) Result {
	a.Status["reputation"] = clamp(a.Status["reputation"]+10, 0, 100)
	return Result{Changes: []string{a.Name + " became the leader"}}
}

func HaveChild(a, partner *agent.State, childName string, gt gametime.Time) Result {
	if a.Status["wealth"] < 40 {
		return Result{Changes: []string{a.Name + " could not afford to have a child"}}
	}
	a.AdjustWealth(-40, "have_child", gt)
	a.Children = append(a.Children, childName)
	if partner != nil {
		partner.Children = append(partner.Children, childName)
	}
	return Result{
		Changes:      []string{a.Name + " had a child: " + childName},
		Transactions: []agent.Transaction{{When: gt, Delta: -40, Reason: "have_child"}},
	}
}

const stallCost = 120.0

func OpenBusiness(a *agent.State, gt gametime.Time) Result {
	if a.Status["wealth"] < stallCost {
		return Result{Changes: []string{a.Name + " could not afford a business"}}
	}
	a.AdjustWealth(-stallCost, "open_business", gt)
	return Result{
		Changes:      []string{a.Name + " opened a business"},
		WorldChanges: []WorldChange{{Op: "add_building", Params: map[string]any{"owner": a.Name, "type": "stall"}}},
		Transactions: []agent.Transaction{{When: gt, Delta: -stallCost, Reason: "open_business"}},
	}
}

func CallEvent(a *agent.State, kind string, gt gametime.Time) Result {
	return Result{
		Changes:      []string{a.Name + " called a " + kind},
		WorldChanges: []WorldChange{{Op: "start_community_event", Params: map[string]any{"kind": kind, "caller": a.Name}}},
	}
}
