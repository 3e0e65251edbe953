package main

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okdaichi/transfork/transfork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "localhost:4443", cfg.Addr)
		assert.Equal(t, "localhost.pem", cfg.Cert)
		assert.False(t, cfg.Debug)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("TRANSFORK_ADDR", "0.0.0.0:443")
		t.Setenv("TRANSFORK_DEBUG", "true")

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:443", cfg.Addr)
		assert.True(t, cfg.Debug)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("TRANSFORK_DEBUG", "sometimes")

		_, err := loadConfig()
		assert.Error(t, err)
	})
}

func TestParsePath(t *testing.T) {
	tests := map[string]struct {
		input string
		want  transfork.Path
	}{
		"simple":  {input: "room1/cam", want: transfork.Path{"room1", "cam"}},
		"slashes": {input: "/room1//cam/", want: transfork.Path{"room1", "cam"}},
		"single":  {input: "clock", want: transfork.Path{"clock"}},
		"empty":   {input: "", want: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePath(tt.input))
		})
	}
}

func TestParseOrder(t *testing.T) {
	tests := map[string]struct {
		want    transfork.GroupOrder
		wantErr bool
	}{
		"":           {want: transfork.GroupOrderAny},
		"any":        {want: transfork.GroupOrderAny},
		"ascending":  {want: transfork.GroupOrderAscending},
		"descending": {want: transfork.GroupOrderDescending},
		"random":     {wantErr: true},
	}

	for input, tt := range tests {
		t.Run(input, func(t *testing.T) {
			order, err := parseOrder(input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, order)
		})
	}
}

func TestFingerprintHandler(t *testing.T) {
	der := []byte("certificate")
	sum := sha256.Sum256(der)

	handler := fingerprintHandler(tls.Certificate{Certificate: [][]byte{der}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fingerprint", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, hex.EncodeToString(sum[:]), rec.Body.String())
}

func TestFingerprintHandler_NoCertificate(t *testing.T) {
	rec := httptest.NewRecorder()
	fingerprintHandler(tls.Certificate{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fingerprint", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
