package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/tendant/turnaplay-teams/pkg/domain"
)

func TestSanitizeTeamName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name",
			input: "Night Owls",
			want:  "Night Owls",
		},
		{
			name:  "trim spaces",
			input: "  Night Owls  ",
			want:  "Night Owls",
		},
		{
			name:  "collapse inner whitespace",
			input: "Night \t  Owls",
			want:  "Night Owls",
		},
		{
			name:  "strip tags",
			input: "<b>Night</b> Owls<script>alert(1)</script>",
			want:  "Night Owls",
		},
		{
			name:  "ampersand kept as text",
			input: "Salt & Pepper",
			want:  "Salt & Pepper",
		},
		{
			name:  "control characters",
			input: "Night\x00 Owls\n",
			want:  "Night Owls",
		},
		{
			name:  "unicode name",
			input: "Équipe Façade",
			want:  "Équipe Façade",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeTeamName(tt.input)
			if err != nil {
				t.Fatalf("SanitizeTeamName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SanitizeTeamName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeTeamName_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "only spaces", input: "   "},
		{name: "only markup", input: "<img src=x onerror=alert(1)>"},
		{name: "too long", input: strings.Repeat("a", MaxTeamNameLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeTeamName(tt.input)
			if !errors.Is(err, domain.ErrInvalidTeamName) {
				t.Errorf("SanitizeTeamName() error = %v, want ErrInvalidTeamName", err)
			}
		})
	}
}

func TestSanitizeTeamName_MaxLengthCountsCharacters(t *testing.T) {
	name := strings.Repeat("é", MaxTeamNameLength)
	got, err := SanitizeTeamName(name)
	if err != nil {
		t.Fatalf("SanitizeTeamName() error = %v", err)
	}
	if got != name {
		t.Errorf("SanitizeTeamName() changed a valid name")
	}
}
