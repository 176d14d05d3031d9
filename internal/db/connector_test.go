package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neoload/internal/logging"
	"github.com/vvka-141/neoload/pkg/neoload"
)

type mockTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
}

func (m *mockTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return m.token, m.expiresOn, nil
}

func (m *mockTokenProvider) String() string { return "mockTokenProvider" }

func TestParseAuthMethod(t *testing.T) {
	tests := []struct {
		in   string
		want AuthMethod
	}{
		{"", AuthMethodStandard},
		{"password", AuthMethodStandard},
		{"AWS", AuthMethodAWSIAM},
		{"gcp", AuthMethodGoogleIAM},
		{"entra", AuthMethodAzureEntraID},
	}
	for _, tt := range tests {
		got, err := ParseAuthMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseAuthMethod("kerberos")
	assert.ErrorIs(t, err, neoload.ErrUnsupportedAuthMethod)
}

func TestNewConnector(t *testing.T) {
	logger := logging.NewNullLogger()

	t.Run("standard", func(t *testing.T) {
		c, err := NewConnector(&Config{ConnString: "postgres://u:p@localhost:5432/crm"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &StandardConnector{}, c)
	})

	t.Run("aws requires region", func(t *testing.T) {
		_, err := NewConnector(&Config{ConnString: "postgres://u@db.example.com:5432/crm", AuthMethod: AuthMethodAWSIAM}, logger)
		assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	})

	t.Run("aws", func(t *testing.T) {
		c, err := NewConnector(&Config{ConnString: "postgres://u@db.example.com:5432/crm", AuthMethod: AuthMethodAWSIAM, AWSRegion: "eu-west-1"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &TokenBasedConnector{}, c)
	})

	t.Run("google requires instance", func(t *testing.T) {
		_, err := NewConnector(&Config{ConnString: "user=u dbname=crm", AuthMethod: AuthMethodGoogleIAM}, logger)
		assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	})

	t.Run("google", func(t *testing.T) {
		c, err := NewConnector(&Config{ConnString: "user=u dbname=crm", AuthMethod: AuthMethodGoogleIAM, GoogleInstance: "p:r:i"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &GoogleCloudSQLConnector{}, c)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewConnector(&Config{AuthMethod: "ldap"}, logger)
		assert.ErrorIs(t, err, neoload.ErrUnsupportedAuthMethod)
	})

	t.Run("bad connection string", func(t *testing.T) {
		c, err := NewConnector(&Config{ConnString: "postgres://u@host:notaport/db"}, logger)
		require.NoError(t, err)
		_, err = c.Connect(context.Background())
		assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	})
}

func TestTokenBasedConnector_UsesTokenAsPassword(t *testing.T) {
	provider := &mockTokenProvider{token: "short-lived", expiresOn: time.Now().Add(time.Hour)}
	c := NewTokenBasedConnector(&Config{ConnString: "postgres://reader@db.example.com:5432/crm"}, provider, "Mock", logging.NewNullLogger())

	cfg, err := c.poolConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short-lived", cfg.ConnConfig.Password)
	assert.Equal(t, "reader", cfg.ConnConfig.User)
	assert.EqualValues(t, DefaultMaxConns, cfg.MaxConns)
}

func TestTokenBasedConnector_TokenFailure(t *testing.T) {
	provider := &mockTokenProvider{err: errors.New("no credentials")}
	c := NewTokenBasedConnector(&Config{ConnString: "postgres://reader@db.example.com/crm"}, provider, "Mock", logging.NewNullLogger())

	_, err := c.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, neoload.ErrSourceFailed)
	assert.Contains(t, err.Error(), "Mock")
}

func TestNewAzureServicePrincipalProvider_RequiresAllParams(t *testing.T) {
	_, err := NewAzureServicePrincipalProvider("", "client", "secret")
	assert.ErrorIs(t, err, neoload.ErrInvalidConfig)

	p, err := NewAzureServicePrincipalProvider("tenant", "client", "secret")
	require.NoError(t, err)
	assert.NotContains(t, p.String(), "secret")
}

func TestNewAWSIAMTokenProvider_Validation(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("db:5432", "", "u")
	assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	_, err = NewAWSIAMTokenProvider("db:5432", "us-east-1", "")
	assert.ErrorIs(t, err, neoload.ErrInvalidConfig)

	p, err := NewAWSIAMTokenProvider("db:5432", "us-east-1", "u")
	require.NoError(t, err)
	assert.Contains(t, p.String(), "us-east-1")
}

func TestNewConstructors_PanicOnNil(t *testing.T) {
	assert.PanicsWithValue(t, "config cannot be nil", func() { NewStandardConnector(nil, logging.NewNullLogger()) })
	assert.PanicsWithValue(t, "tokenProvider cannot be nil", func() {
		NewTokenBasedConnector(&Config{}, nil, "x", logging.NewNullLogger())
	})
	assert.PanicsWithValue(t, "connector cannot be nil", func() { NewSource(nil, logging.NewNullLogger()) })
}
