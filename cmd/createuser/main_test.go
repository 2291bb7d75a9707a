package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/service"
	"github.com/memopad/memopad/internal/testutil"
)

func newAccounts() (*service.AccountService, *testutil.MemoryStore) {
	store := testutil.NewMemoryStore()
	return service.NewAccountService(store, metrics.NewNoop()), store
}

func TestCreateUser_Plain(t *testing.T) {
	accounts, store := newAccounts()
	var out bytes.Buffer

	err := createUser(context.Background(), accounts, service.SignUpInput{
		Email:    "admin@example.com",
		Password: "s3cret-pass",
	}, "plain", &out)
	require.NoError(t, err)

	id := strings.TrimSpace(out.String())
	require.NotEmpty(t, id)

	user, err := store.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
}

func TestCreateUser_JSON(t *testing.T) {
	accounts, _ := newAccounts()
	var out bytes.Buffer

	err := createUser(context.Background(), accounts, service.SignUpInput{
		Email:    "Admin@Example.com",
		Password: "s3cret-pass",
		Name:     "Admin",
	}, "JSON", &out)
	require.NoError(t, err)

	var got output
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "admin@example.com", got.Email)
	assert.Equal(t, "Admin", got.Name)
	assert.NotContains(t, out.String(), "s3cret-pass")
}

func TestCreateUser_Errors(t *testing.T) {
	accounts, _ := newAccounts()
	ctx := context.Background()
	in := service.SignUpInput{Email: "dup@example.com", Password: "s3cret-pass"}

	require.NoError(t, createUser(ctx, accounts, in, "plain", &bytes.Buffer{}))

	err := createUser(ctx, accounts, in, "plain", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	err = createUser(ctx, accounts, service.SignUpInput{Email: "x@example.com", Password: "short"}, "plain", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")

	err = createUser(ctx, accounts, in, "yaml", &bytes.Buffer{})
	require.Error(t, err)
}
