package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    UserID
		wantErr bool
	}{
		{"string", `{"user_id":"abc-1"}`, "abc-1", false},
		{"integer", `{"user_id":17}`, "17", false},
		{"null", `{"user_id":null}`, "", false},
		{"float", `{"user_id":1.5}`, "", true},
		{"bool", `{"user_id":true}`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req GenerateRequest
			err := json.Unmarshal([]byte(tc.input), &req)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, req.UserID)
		})
	}
}
