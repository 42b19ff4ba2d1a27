package rcon

import (
	"reflect"
	"testing"
)

func TestParsePlayers(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "two players",
			response: "There are 2/20 players online: Alice, Bob",
			want:     []string{"Alice", "Bob"},
		},
		{
			name:     "empty roster",
			response: "There are 0/20 players online:",
			want:     []string{},
		},
		{
			name:     "single player with color codes",
			response: "§aThere are §e1§a/§e20§a players online:§r Steve",
			want:     []string{"Steve"},
		},
		{
			name:     "whitespace around names",
			response: "There are 3/20 players online:  Alice ,Bob,  Carol ",
			want:     []string{"Alice", "Bob", "Carol"},
		},
		{
			name:     "unrelated response",
			response: "Saved the game",
			want:     []string{},
		},
		{
			name:     "empty response",
			response: "",
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePlayers(tt.response)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePlayers(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestIsListResponse(t *testing.T) {
	tests := []struct {
		response string
		want     bool
	}{
		{"There are 0/20 players online:", true},
		{"§aThere are 2/20 §eplayers online:§r Alice, Bob", true},
		{"Saved the game", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsListResponse(tt.response); got != tt.want {
			t.Errorf("IsListResponse(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}
