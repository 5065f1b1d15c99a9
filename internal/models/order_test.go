package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to preparing", StatusConfirmed, StatusPreparing, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"preparing to delivered", StatusPreparing, StatusDelivered, true},
		{"pending to preparing skips confirmed", StatusPending, StatusPreparing, false},
		{"pending to delivered skips stages", StatusPending, StatusDelivered, false},
		{"preparing to cancelled", StatusPreparing, StatusCancelled, false},
		{"delivered is terminal", StatusDelivered, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"confirmed back to pending", StatusConfirmed, StatusPending, false},
		{"delivered back to preparing", StatusDelivered, StatusPreparing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCanTransitionItem(t *testing.T) {
	tests := []struct {
		name string
		from ItemStatus
		to   ItemStatus
		want bool
	}{
		{"pending to confirmed", ItemPending, ItemConfirmed, true},
		{"confirmed to preparing", ItemConfirmed, ItemPreparing, true},
		{"preparing to ready", ItemPreparing, ItemReady, true},
		{"ready to delivered", ItemReady, ItemDelivered, true},
		{"preparing to cancelled", ItemPreparing, ItemCancelled, true},
		{"ready to cancelled", ItemReady, ItemCancelled, false},
		{"pending to ready skips stages", ItemPending, ItemReady, false},
		{"delivered is terminal", ItemDelivered, ItemCancelled, false},
		{"cancelled is terminal", ItemCancelled, ItemConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransitionItem(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransitionItem(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []OrderStatus{StatusDelivered, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    OrderStatus
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"delivered", StatusDelivered, false},
		{"cancelled", StatusCancelled, false},
		{"Confirmed", "", true},
		{"shipped", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOrderStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrderStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOrderStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseItemStatus(t *testing.T) {
	if _, err := ParseItemStatus("ready"); err != nil {
		t.Errorf("ParseItemStatus(ready) returned error: %v", err)
	}
	if _, err := ParseItemStatus("baking"); err == nil {
		t.Error("ParseItemStatus(baking) should fail")
	}
}

func TestFormatOrderNumber(t *testing.T) {
	day := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		number int
		want   string
	}{
		{1, "ORD_20240131_001"},
		{7, "ORD_20240131_007"},
		{42, "ORD_20240131_042"},
		{999, "ORD_20240131_999"},
		{1000, "ORD_20240131_1000"},
	}

	for _, tt := range tests {
		if got := FormatOrderNumber(day, tt.number); got != tt.want {
			t.Errorf("FormatOrderNumber(%d) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestOrderDisplayNumber(t *testing.T) {
	order := &Order{
		Number:      3,
		BusinessDay: time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
	}
	if got := order.DisplayNumber(); got != "ORD_20251201_003" {
		t.Errorf("DisplayNumber() = %q, want ORD_20251201_003", got)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		want  ItemReadiness
	}{
		{
			name: "mixed progress",
			items: []OrderItem{
				{Status: ItemReady},
				{Status: ItemPreparing},
				{Status: ItemPending},
			},
			want: ItemReadiness{ReadyItems: 1, TotalItems: 3},
		},
		{
			name: "delivered counts as ready",
			items: []OrderItem{
				{Status: ItemDelivered},
				{Status: ItemReady},
			},
			want: ItemReadiness{ReadyItems: 2, TotalItems: 2},
		},
		{
			name: "cancelled items excluded from total",
			items: []OrderItem{
				{Status: ItemReady},
				{Status: ItemCancelled},
				{Status: ItemConfirmed},
			},
			want: ItemReadiness{ReadyItems: 1, TotalItems: 2},
		},
		{
			name:  "no items",
			items: nil,
			want:  ItemReadiness{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Items: tt.items}
			if got := order.Readiness(); got != tt.want {
				t.Errorf("Readiness() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTimingMetricsIsZero(t *testing.T) {
	var m TimingMetrics
	if !m.IsZero() {
		t.Error("empty metrics should be zero")
	}

	five := 5
	m.ConfirmationTimeMinutes = &five
	if m.IsZero() {
		t.Error("metrics with a value should not be zero")
	}
}
