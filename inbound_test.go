package streampay_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
)

func TestCreateOrDepositJSON(t *testing.T) {
	t.Run("CreateRoundTrip", func(t *testing.T) {
		msg := streampay.NewCreateMsg(stream.CreateParams{
			Description:   "rent",
			ReceiverID:    "bob",
			TokenName:     "DACHA",
			TokensPerTick: 10,
			AutoDeposit:   true,
		})

		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), `{"Create":`) {
			t.Errorf("wire form: %s", data)
		}

		var decoded streampay.CreateOrDeposit
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Create == nil || decoded.Deposit != nil {
			t.Fatal("wrong variant decoded")
		}
		if decoded.Create.ReceiverID != "bob" || decoded.Create.TokenName != "DACHA" {
			t.Errorf("params: %+v", decoded.Create)
		}
		if !decoded.Create.AutoDeposit || decoded.Create.TokensPerTick != 10 {
			t.Errorf("params: %+v", decoded.Create)
		}
	})

	t.Run("DepositRoundTrip", func(t *testing.T) {
		streamID := id.NewStreamID()
		msg := streampay.NewDepositMsg(streamID)

		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), `{"Deposit":"strm_`) {
			t.Errorf("wire form: %s", data)
		}

		var decoded streampay.CreateOrDeposit
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Deposit == nil || decoded.Create != nil {
			t.Fatal("wrong variant decoded")
		}
		if decoded.Deposit.String() != streamID.String() {
			t.Errorf("stream ID: got %q, want %q", decoded.Deposit.String(), streamID.String())
		}
	})

	t.Run("RejectsMalformed", func(t *testing.T) {
		inputs := []struct {
			name string
			data string
		}{
			{"Empty", `{}`},
			{"TwoKeys", `{"Create":{},"Deposit":"strm_x"}`},
			{"UnknownVariant", `{"Burn":"strm_x"}`},
			{"NotAnObject", `"strm_x"`},
		}

		for _, tt := range inputs {
			t.Run(tt.name, func(t *testing.T) {
				var decoded streampay.CreateOrDeposit
				if err := json.Unmarshal([]byte(tt.data), &decoded); err == nil {
					t.Errorf("expected error for %s", tt.data)
				}
			})
		}
	})

	t.Run("MarshalRequiresExactlyOneVariant", func(t *testing.T) {
		if _, err := json.Marshal(streampay.CreateOrDeposit{}); err == nil {
			t.Error("expected error for empty message")
		}

		both := streampay.CreateOrDeposit{
			Create:  &stream.CreateParams{},
			Deposit: &id.StreamID{},
		}
		if _, err := json.Marshal(both); err == nil {
			t.Error("expected error for both variants set")
		}
	})
}
