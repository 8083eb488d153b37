package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/wolfgoatpig/internal/game"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(TypeGameCreated, "req-1", GameCreated{
		GameID:   "g1",
		Rotation: []string{"p1", "p2", "p3", "p4"},
	})
	require.NoError(t, err)
	assert.Equal(t, TypeGameCreated, env.Type)
	assert.Equal(t, "req-1", env.RequestID)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	var payload GameCreated
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, "g1", payload.GameID)
	assert.Len(t, payload.Rotation, 4)
}

func TestFormationToConfiguration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want game.FormationKind
	}{
		{"partners", game.FormationPartners},
		{"solo", game.FormationSolo},
		{"aardvark_join", game.FormationAardvarkJoin},
		{"aardvark_solo", game.FormationAardvarkSolo},
	}
	for _, tt := range tests {
		tc, err := Formation{Kind: tt.kind}.ToConfiguration()
		require.NoError(t, err, tt.kind)
		assert.Equal(t, tt.want, tc.Kind)
	}

	_, err := Formation{Kind: "mystery"}.ToConfiguration()
	assert.ErrorContains(t, err, "unknown formation kind")
}

func TestFormationFieldsCarryThrough(t *testing.T) {
	t.Parallel()

	tc, err := Formation{
		Kind:     "aardvark_join",
		TeamA:    []string{"p1", "p2"},
		TeamB:    []string{"p3", "p4", "p5"},
		Aardvark: "p5",
		Tossed:   true,
	}.ToConfiguration()
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, tc.TeamA)
	assert.Equal(t, "p5", tc.Aardvark)
	assert.True(t, tc.Tossed)
}

func TestNewErrorMsgPreservesRuleStructure(t *testing.T) {
	t.Parallel()

	g, err := game.NewGame("g", []*game.Player{
		{ID: "p1"}, {ID: "p2"}, {ID: "p3"},
	}, 1)
	require.Nil(t, g)

	msg := NewErrorMsg(err)
	assert.Equal(t, "game-state", msg.Family)
	assert.Equal(t, game.CodeInvalidPlayerCount, msg.Code)
	assert.NotEmpty(t, msg.Message)

	plain := NewErrorMsg(errors.New("boom"))
	assert.Empty(t, plain.Code)
	assert.Equal(t, "boom", plain.Message)
}
