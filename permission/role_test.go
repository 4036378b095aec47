package permission

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		err  bool
	}{
		{in: "CLIENTE", want: RoleCliente},
		{in: "restaurante", want: RoleRestaurante},
		{in: " Entregador ", want: RoleEntregador},
		{in: "ROLE_ADMIN", want: RoleAdmin},
		{in: "role_cliente", want: RoleCliente},
		{in: "", err: true},
		{in: "ROLE_", err: true},
		{in: "SUPERUSER", err: true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownRole) {
				t.Fatalf("ParseRole(%q): expected ErrUnknownRole, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoleAuthority(t *testing.T) {
	want := map[Role]string{
		RoleCliente:     "ROLE_CLIENTE",
		RoleRestaurante: "ROLE_RESTAURANTE",
		RoleEntregador:  "ROLE_ENTREGADOR",
		RoleAdmin:       "ROLE_ADMIN",
	}
	for _, r := range Roles() {
		if got := r.Authority(); got != want[r] {
			t.Fatalf("%v authority = %q, want %q", r, got, want[r])
		}
		back, err := ParseRole(r.Authority())
		if err != nil || back != r {
			t.Fatalf("authority %q did not parse back to %v", r.Authority(), r)
		}
	}
	if RoleInvalid.Authority() != "" {
		t.Fatal("invalid role must have no authority")
	}
	if Role(99).Valid() {
		t.Fatal("out of range role must be invalid")
	}
}

func TestRoleJSON(t *testing.T) {
	type account struct {
		Role Role `json:"role"`
	}

	raw, err := json.Marshal(account{Role: RoleEntregador})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"role":"ENTREGADOR"}` {
		t.Fatalf("unexpected json %s", raw)
	}

	var decoded account
	if err := json.Unmarshal([]byte(`{"role":"cliente"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Role != RoleCliente {
		t.Fatalf("decoded role %v", decoded.Role)
	}

	if err := json.Unmarshal([]byte(`{"role":"ghost"}`), &decoded); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	if _, err := json.Marshal(account{}); err == nil {
		t.Fatal("expected invalid role marshal to fail")
	}
}
