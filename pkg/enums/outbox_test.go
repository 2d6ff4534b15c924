package enums

import "testing"

func TestOutboxEventAggregates(t *testing.T) {
	tests := []struct {
		event OutboxEventType
		want  OutboxAggregateType
	}{
		{EventStockMovementRecorded, AggregateItem},
		{EventStockWithdrawn, AggregateStandardList},
		{EventCompanyOwnerAssigned, AggregateCompany},
	}
	for _, tt := range tests {
		got, ok := tt.event.Aggregate()
		if !ok || got != tt.want {
			t.Fatalf("%q: expected aggregate %q got %q", tt.event, tt.want, got)
		}
		if !got.IsValid() {
			t.Fatalf("%q: aggregate %q not valid", tt.event, got)
		}
	}
}

func TestOutboxEventTypeRejectsUnknown(t *testing.T) {
	if OutboxEventType("order_created").IsValid() {
		t.Fatal("unknown event type accepted")
	}
	if _, ok := OutboxEventType("").Aggregate(); ok {
		t.Fatal("empty event type has an aggregate")
	}
	if OutboxAggregateType("order").IsValid() {
		t.Fatal("unknown aggregate accepted")
	}
}
