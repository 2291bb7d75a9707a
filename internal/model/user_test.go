package model

import "testing"

func TestUser_Principal(t *testing.T) {
	t.Parallel()

	user := &User{ID: "u1", Email: "a@example.com", Name: "A", PasswordHash: "secret-hash"}
	p := user.Principal()

	if p.ID != "u1" || p.Email != "a@example.com" || p.Name != "A" {
		t.Errorf("unexpected principal %+v", p)
	}
}
