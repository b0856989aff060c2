package model

// Status is the closed set of stock-request states.
type Status string

const (
	StatusPurchase     Status = "purchase"     // ordered from a supplier
	StatusIncoming     Status = "incoming"     // goods arrived, being received
	StatusWarehouse    Status = "warehouse"    // placed into storage
	StatusMoving       Status = "moving"       // inter-warehouse transfer in progress
	StatusPackage      Status = "package"      // being packed for an order
	StatusExtradition  Status = "extradition"  // handed out for delivery/pickup
	StatusShipment     Status = "shipment"     // left the building
	StatusDecommission Status = "decommission" // written off
	StatusError        Status = "error"        // stock discrepancy, needs operator
	StatusCancel       Status = "cancel"       // cancelled
)

type statusInfo struct {
	rank  int
	color string
}

// Sort ranks drive UI ordering, colors are display hints. Data, not behavior.
var statuses = map[Status]statusInfo{
	StatusPurchase:     {rank: 10, color: "#2196f3"},
	StatusIncoming:     {rank: 20, color: "#00bcd4"},
	StatusWarehouse:    {rank: 30, color: "#4caf50"},
	StatusMoving:       {rank: 40, color: "#ff9800"},
	StatusPackage:      {rank: 50, color: "#9c27b0"},
	StatusExtradition:  {rank: 60, color: "#673ab7"},
	StatusShipment:     {rank: 70, color: "#607d8b"},
	StatusDecommission: {rank: 80, color: "#795548"},
	StatusError:        {rank: 90, color: "#f44336"},
	StatusCancel:       {rank: 100, color: "#9e9e9e"},
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

func (s Status) SortRank() int {
	return statuses[s].rank
}

func (s Status) Color() string {
	return statuses[s].color
}

// Terminal statuses permit no further transitions. Their ledger effects are
// finalized by the transition that enters them.
func (s Status) Terminal() bool {
	return s == StatusShipment || s == StatusError || s == StatusCancel
}

// transitions is the explicit reachability table for forward edges. Cancel and
// error are additionally reachable from every non-terminal status.
var transitions = map[Status][]Status{
	StatusPurchase:     {StatusIncoming},
	StatusIncoming:     {StatusWarehouse},
	StatusWarehouse:    {StatusMoving, StatusPackage, StatusDecommission},
	StatusMoving:       {StatusWarehouse},
	StatusPackage:      {StatusExtradition},
	StatusExtradition:  {StatusShipment},
	StatusDecommission: {},
	StatusShipment:     {},
	StatusError:        {},
	StatusCancel:       {},
}

// CanReach reports whether a transition from s to target is legal.
func (s Status) CanReach(target Status) bool {
	if s.Terminal() {
		return false
	}
	if target == StatusCancel || target == StatusError {
		return true
	}
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Reenterable statuses may appear more than once in a request's history
// (warehouse <-> moving round trips). Every other status is one-shot and
// guarded against duplicate events.
func (s Status) Reenterable() bool {
	return s == StatusWarehouse || s == StatusMoving
}

// Received reports whether the status means the goods have physically arrived
// and were added to the ledger.
func (s Status) Received() bool {
	return s == StatusIncoming || s == StatusWarehouse
}

// HoldsReserve reports whether a request sitting in this status holds a stock
// reservation that cancellation must release.
func (s Status) HoldsReserve() bool {
	return s == StatusPackage || s == StatusExtradition
}
