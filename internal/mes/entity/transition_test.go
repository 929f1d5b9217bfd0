package entity

import "testing"

func TestWorkOrderTransition(t *testing.T) {
	cases := []struct {
		status string
		action string
		next   string
		ok     bool
	}{
		{WOStatusDraft, WOActionRelease, WOStatusReleased, true},
		{WOStatusReleased, WOActionStart, WOStatusInProgress, true},
		{WOStatusInProgress, WOActionComplete, WOStatusCompleted, true},
		{WOStatusDraft, WOActionCancel, WOStatusCancelled, true},
		{WOStatusReleased, WOActionCancel, WOStatusCancelled, true},
		{WOStatusInProgress, WOActionCancel, WOStatusCancelled, true},
		{WOStatusPaused, WOActionCancel, WOStatusCancelled, true},

		{WOStatusDraft, WOActionStart, "", false},
		{WOStatusDraft, WOActionComplete, "", false},
		{WOStatusReleased, WOActionRelease, "", false},
		{WOStatusReleased, WOActionComplete, "", false},
		{WOStatusCompleted, WOActionCancel, "", false},
		{WOStatusCancelled, WOActionCancel, "", false},
		{WOStatusCompleted, WOActionRelease, "", false},
	}
	for _, tc := range cases {
		next, ok := WorkOrderTransition(tc.status, tc.action)
		if ok != tc.ok {
			t.Errorf("WorkOrderTransition(%s, %s) ok = %v, want %v", tc.status, tc.action, ok, tc.ok)
			continue
		}
		if ok && next != tc.next {
			t.Errorf("WorkOrderTransition(%s, %s) = %s, want %s", tc.status, tc.action, next, tc.next)
		}
	}
}

func TestMaterialPickTransition(t *testing.T) {
	cases := []struct {
		status string
		action string
		next   string
		ok     bool
	}{
		{PickStatusDraft, PickActionConfirm, PickStatusConfirmed, true},
		{PickStatusConfirmed, PickActionComplete, PickStatusCompleted, true},
		{PickStatusDraft, PickActionCancel, PickStatusCancelled, true},
		{PickStatusConfirmed, PickActionCancel, PickStatusCancelled, true},

		{PickStatusDraft, PickActionComplete, "", false},
		{PickStatusCompleted, PickActionCancel, "", false},
		{PickStatusCancelled, PickActionConfirm, "", false},
		{PickStatusCompleted, PickActionComplete, "", false},
	}
	for _, tc := range cases {
		next, ok := MaterialPickTransition(tc.status, tc.action)
		if ok != tc.ok {
			t.Errorf("MaterialPickTransition(%s, %s) ok = %v, want %v", tc.status, tc.action, ok, tc.ok)
			continue
		}
		if ok && next != tc.next {
			t.Errorf("MaterialPickTransition(%s, %s) = %s, want %s", tc.status, tc.action, next, tc.next)
		}
	}
}

func TestValidReportType(t *testing.T) {
	for _, valid := range []string{"start", "complete", "pause", "resume", "scrap"} {
		if !ValidReportType(valid) {
			t.Errorf("ValidReportType(%s) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"", "finish", "STOP", "Start"} {
		if ValidReportType(invalid) {
			t.Errorf("ValidReportType(%s) = true, want false", invalid)
		}
	}
}

func TestValidTransactionType(t *testing.T) {
	for _, valid := range []string{"pick", "return", "issue", "receive", "adjust", "transfer"} {
		if !ValidTransactionType(valid) {
			t.Errorf("ValidTransactionType(%s) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"", "move", "Pick"} {
		if ValidTransactionType(invalid) {
			t.Errorf("ValidTransactionType(%s) = true, want false", invalid)
		}
	}
}
