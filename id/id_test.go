package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/streampay/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"StreamID", id.NewStreamID, "strm_"},
		{"ActionID", id.NewActionID, "act_"},
		{"TransferID", id.NewTransferID, "xfer_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixStream)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixStream {
		t.Errorf("expected prefix %q, got %q", id.PrefixStream, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"StreamID", id.NewStreamID, id.ParseStreamID},
		{"ActionID", id.NewActionID, id.ParseActionID},
		{"TransferID", id.NewTransferID, id.ParseTransferID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip: got %q, want %q", parsed.String(), original.String())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-typeid"},
		{"BadSuffix", "strm_!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.input); err == nil {
				t.Errorf("expected error for %q", tt.input)
			}
		})
	}
}

func TestParseWithPrefixMismatch(t *testing.T) {
	streamID := id.NewStreamID()
	if _, err := id.ParseTransferID(streamID.String()); err == nil {
		t.Error("expected error parsing stream ID as transfer ID")
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID
	if !nilID.IsNil() {
		t.Error("zero value should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil String: got %q, want empty", nilID.String())
	}
	if nilID.Prefix() != "" {
		t.Errorf("nil Prefix: got %q, want empty", nilID.Prefix())
	}
}

func TestTextMarshaling(t *testing.T) {
	original := id.NewStreamID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round trip: got %q, want %q", decoded.String(), original.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatal(err)
	}
	if !empty.IsNil() {
		t.Error("empty text should decode to nil ID")
	}
}

func TestSQLInterfaces(t *testing.T) {
	original := id.NewTransferID()

	val, err := original.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != original.String() {
		t.Errorf("round trip: got %q, want %q", scanned.String(), original.String())
	}

	var fromBytes id.ID
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatal(err)
	}
	if fromBytes.String() != original.String() {
		t.Errorf("scan bytes: got %q, want %q", fromBytes.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Error("NULL should scan to nil ID")
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatal(err)
	}
	if val != nil {
		t.Errorf("nil Value: got %v, want nil", val)
	}

	var bad id.ID
	if err := bad.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
