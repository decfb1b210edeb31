package dto

type CreateSessionInput struct {
	StoreID  string
	OrderIDs []string
	ActorID  *string
}

type PickInput struct {
	StoreID   string
	SessionID string
	ProductID string
	By        int
	ActorID   *string
}

type StartPackingInput struct {
	StoreID   string
	SessionID string
	// AcceptPartial allows the transition even when some picking lines are
	// short of their needed quantity.
	AcceptPartial bool
	ActorID       *string
}

type PackInput struct {
	StoreID   string
	SessionID string
	OrderID   string
	ProductID string
	By        int
	ActorID   *string
}

type PackAllInput struct {
	StoreID   string
	SessionID string
	OrderID   string
	ActorID   *string
}

type AbandonInput struct {
	StoreID   string
	SessionID string
	ActorID   *string
}
