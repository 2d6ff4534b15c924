package enums

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateItem         OutboxAggregateType = "item"
	AggregateStandardList OutboxAggregateType = "standard_list"
	AggregateCompany      OutboxAggregateType = "company"
)

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateItem, AggregateStandardList, AggregateCompany:
		return true
	}
	return false
}

// OutboxEventType is the event_type stored on outbox_events and relayed to
// subscribers.
type OutboxEventType string

const (
	EventStockMovementRecorded OutboxEventType = "stock_movement_recorded"
	EventStockWithdrawn        OutboxEventType = "stock_withdrawn"
	EventCompanyOwnerAssigned  OutboxEventType = "company_owner_assigned"
)

var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventStockMovementRecorded: AggregateItem,
	EventStockWithdrawn:        AggregateStandardList,
	EventCompanyOwnerAssigned:  AggregateCompany,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type every event of this kind refers to.
func (e OutboxEventType) Aggregate() (OutboxAggregateType, bool) {
	a, ok := eventAggregates[e]
	return a, ok
}
