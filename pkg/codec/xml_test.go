package codec

import (
	"strings"
	"testing"

	"github.com/madcok-co/bridgekit/pkg/value"
)

func TestDecodeXML(t *testing.T) {
	t.Run("decodes element tree into object", func(t *testing.T) {
		v, err := DecodeXML([]byte(`<record><id>7</id><name>alice</name></record>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record, ok := v.Get("record")
		if !ok {
			t.Fatal("expected record element")
		}

		id, _ := record.Get("id")
		if id.Kind() != value.KindNumber || id.NumberValue() != 7 {
			t.Errorf("expected numeric id 7, got %v", id)
		}

		name, _ := record.Get("name")
		if name.StringValue() != "alice" {
			t.Errorf("expected alice, got %q", name.StringValue())
		}
	})

	t.Run("malformed input fails", func(t *testing.T) {
		_, err := DecodeXML([]byte(`<open><unclosed>`))
		if err == nil {
			t.Error("expected error for malformed XML")
		}
	})
}

func TestEncodeXML(t *testing.T) {
	t.Run("encodes object", func(t *testing.T) {
		obj := value.Object()
		inner := value.Object()
		inner.Set("id", value.Number(1))
		obj.Set("record", inner)

		out, err := EncodeXML(obj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(out), "<record>") || !strings.Contains(string(out), "<id>1</id>") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("rejects non-object shapes", func(t *testing.T) {
		if _, err := EncodeXML(value.Array()); err == nil {
			t.Error("expected error for array")
		}
		if _, err := EncodeXML(value.String("x")); err == nil {
			t.Error("expected error for scalar")
		}
	})
}

func TestUnwrapSOAPBody(t *testing.T) {
	raw := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Header/><soap:Body><GetUserResponse><id>3</id></GetUserResponse></soap:Body></soap:Envelope>`

	v, err := DecodeXML([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("default decode keeps envelope nested", func(t *testing.T) {
		_, plain := v.Get("Envelope")
		_, prefixed := v.Get("soap:Envelope")
		if !plain && !prefixed {
			t.Error("expected envelope to remain in decoded value")
		}
	})

	t.Run("unwrap returns body content", func(t *testing.T) {
		body := UnwrapSOAPBody(v)
		if _, ok := body.Get("GetUserResponse"); !ok {
			t.Errorf("expected body content, got %v", body)
		}
	})

	t.Run("values without an envelope pass through", func(t *testing.T) {
		plain := value.Object()
		plain.Set("a", value.Number(1))
		if !value.Equal(UnwrapSOAPBody(plain), plain) {
			t.Error("expected passthrough for non-SOAP value")
		}
	})
}

func TestFormatAcceptHeader(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatXML, "application/xml, text/xml"},
		{FormatSOAP, "application/xml, text/xml"},
		{FormatCSV, "text/csv"},
		{FormatJSON, "application/json"},
		{FormatGRPC, "application/json"},
	}

	for _, tt := range tests {
		if got := tt.format.AcceptHeader(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.format, tt.want, got)
		}
	}
}
