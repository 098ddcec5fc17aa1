package vless

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	material := GenerateKey("vpn")

	assert.True(t, strings.HasPrefix(material.Token, "vpn-"))
	_, err := uuid.Parse(material.UUID)
	assert.NoError(t, err)
	assert.Equal(t, "vpn-"+material.UUID, material.Token)

	other := GenerateKey("trial")
	assert.True(t, strings.HasPrefix(other.Token, "trial-"))
	assert.NotEqual(t, material.UUID, other.UUID)
}

func TestFormatConfig(t *testing.T) {
	params := ServerParams{Host: "vpn.example.com", Port: 443, Path: "/ws"}
	uri := FormatConfig("vpn-abc123", params)

	assert.True(t, strings.HasPrefix(uri, "vless://vpn-abc123@vpn.example.com:443?"))
	assert.Contains(t, uri, "security=tls")
	assert.Contains(t, uri, "type=ws")
	assert.Contains(t, uri, "sni=vpn.example.com")
	assert.True(t, strings.HasSuffix(uri, "#vpn-abc123"))
}

func TestBuildConfigDocument(t *testing.T) {
	params := ServerParams{Host: "vpn.example.com", Port: 443, Path: "/ws"}
	doc := BuildConfigDocument("vpn-abc123", "germany", params)

	assert.Equal(t, "vless", doc.Protocol)
	assert.Equal(t, "vpn-abc123", doc.UUID)
	assert.Equal(t, "vpn.example.com", doc.Server)
	assert.Equal(t, 443, doc.Port)
	assert.Equal(t, "germany", doc.Location)
	assert.True(t, doc.TLS)
	assert.Equal(t, FormatConfig("vpn-abc123", params), doc.URI)
}
