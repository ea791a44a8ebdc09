package models

import "testing"

func TestFormStatusTransitions(t *testing.T) {
	all := []FormStatus{
		FormStatusDraft, FormStatusSubmitted, FormStatusUnderReview,
		FormStatusApproved, FormStatusRejected,
	}

	allowed := map[FormStatus]map[FormStatus]bool{
		FormStatusDraft: {FormStatusSubmitted: true},
		FormStatusSubmitted: {
			FormStatusUnderReview: true, FormStatusApproved: true,
			FormStatusRejected: true, FormStatusDraft: true,
		},
		FormStatusUnderReview: {
			FormStatusApproved: true, FormStatusRejected: true, FormStatusDraft: true,
		},
		FormStatusApproved: {},
		FormStatusRejected: {},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestFormStatusTerminal(t *testing.T) {
	tests := []struct {
		status FormStatus
		want   bool
	}{
		{FormStatusDraft, false},
		{FormStatusSubmitted, false},
		{FormStatusUnderReview, false},
		{FormStatusApproved, true},
		{FormStatusRejected, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestServiceCodeValid(t *testing.T) {
	valid := []ServiceCode{
		ServiceADR, ServiceMusicalScoring, ServiceSoundDesign, ServiceAudioEditing,
		ServiceMusicResearch, ServiceMusicClearance, ServiceMusicCreation,
		ServiceVideoEditing, ServiceColorCorrection, ServiceCompositing,
		Service2DAnimation, Service3DAnimation, ServiceSpecialEffects,
	}
	for _, code := range valid {
		if !code.Valid() {
			t.Errorf("expected %s to be a valid service code", code)
		}
	}
	if ServiceCode("catering").Valid() {
		t.Error("unknown service code should be invalid")
	}
}

func TestApprovalActionValid(t *testing.T) {
	for _, action := range []ApprovalAction{ActionApprove, ActionReject, ActionNeedsRevision} {
		if !action.Valid() {
			t.Errorf("expected %s to be valid", action)
		}
	}
	if ApprovalAction("escalate").Valid() {
		t.Error("unknown action should be invalid")
	}
}

func TestApprovalCompleted(t *testing.T) {
	tests := []struct {
		status ApprovalStatus
		want   bool
	}{
		{ApprovalPending, false},
		{ApprovalNeedsRevision, false},
		{ApprovalApproved, true},
		{ApprovalRejected, true},
	}
	for _, tt := range tests {
		a := &Approval{Status: tt.status}
		if got := a.Completed(); got != tt.want {
			t.Errorf("Completed(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFormEditable(t *testing.T) {
	form := &AccreditationForm{Status: FormStatusDraft}
	if !form.Editable() {
		t.Error("draft form should be editable")
	}
	form.Status = FormStatusSubmitted
	if form.Editable() {
		t.Error("submitted form should not be editable")
	}
}
