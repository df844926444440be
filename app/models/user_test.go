package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("tester", "tester@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_INACTIVE, u.Status)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.False(t, u.HasExternalCustomerID())
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("x", "not-an-email", "secret123")
	require.Error(t, err)
}

func TestHasExternalCustomerID(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasExternalCustomerID())

	empty := ""
	u.ExternalCustomerID = &empty
	assert.False(t, u.HasExternalCustomerID())

	cus := "cus_1"
	u.ExternalCustomerID = &cus
	assert.True(t, u.HasExternalCustomerID())
}
