package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNextStatus(t *testing.T) {
	size := TeamSize{Required: 3, Max: 5}

	tests := []struct {
		name    string
		current RegistrationStatus
		members int
		pending int
		want    RegistrationStatus
	}{
		{
			name:    "captain only",
			current: RegistrationStatusForming,
			members: 1,
			pending: 0,
			want:    RegistrationStatusForming,
		},
		{
			name:    "enough members no pending",
			current: RegistrationStatusForming,
			members: 3,
			pending: 0,
			want:    RegistrationStatusValid,
		},
		{
			name:    "enough members with pending invite",
			current: RegistrationStatusForming,
			members: 3,
			pending: 1,
			want:    RegistrationStatusForming,
		},
		{
			name:    "above required",
			current: RegistrationStatusForming,
			members: 4,
			pending: 0,
			want:    RegistrationStatusValid,
		},
		{
			name:    "valid drops below required",
			current: RegistrationStatusValid,
			members: 2,
			pending: 0,
			want:    RegistrationStatusForming,
		},
		{
			name:    "cancelled is terminal",
			current: RegistrationStatusCancelled,
			members: 5,
			pending: 0,
			want:    RegistrationStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStatus(tt.current, tt.members, tt.pending, size); got != tt.want {
				t.Errorf("NextStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistration_IsClosed(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		reg  Registration
		want bool
	}{
		{
			name: "forming",
			reg:  Registration{Status: RegistrationStatusForming},
			want: false,
		},
		{
			name: "valid unlocked",
			reg:  Registration{Status: RegistrationStatusValid},
			want: false,
		},
		{
			name: "valid locked",
			reg:  Registration{Status: RegistrationStatusValid, LockedAt: &now},
			want: true,
		},
		{
			name: "cancelled",
			reg:  Registration{Status: RegistrationStatusCancelled, CancelledAt: &now},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reg.IsClosed(); got != tt.want {
				t.Errorf("IsClosed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistration_IsCaptain(t *testing.T) {
	captain := uuid.New()
	reg := Registration{ID: uuid.New(), CaptainAccountID: captain}

	if !reg.IsCaptain(captain) {
		t.Error("IsCaptain(captain) should be true")
	}
	if reg.IsCaptain(uuid.New()) {
		t.Error("IsCaptain(other) should be false")
	}
}

func TestTeamSize_HasRoomFor(t *testing.T) {
	size := TeamSize{Required: 2, Max: 2}

	if !size.HasRoomFor(1) {
		t.Error("HasRoomFor(1) should be true with max 2")
	}
	if size.HasRoomFor(2) {
		t.Error("HasRoomFor(2) should be false with max 2")
	}
}
