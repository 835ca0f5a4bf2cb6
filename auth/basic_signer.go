package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/goliatone/go-datacite/core"
)

const HeaderAuthorization = "Authorization"

type BasicSignerConfig struct {
	Username string
	Password string
}

// BasicSigner attaches HTTP Basic credentials to every registry request.
type BasicSigner struct {
	config BasicSignerConfig
}

func NewBasicSigner(cfg BasicSignerConfig) *BasicSigner {
	return &BasicSigner{
		config: BasicSignerConfig{
			Username: strings.TrimSpace(cfg.Username),
			Password: cfg.Password,
		},
	}
}

// NewBasicSignerFromConfig reads the account credentials from registry
// configuration.
func NewBasicSignerFromConfig(cfg core.RegistryConfig) *BasicSigner {
	return NewBasicSigner(BasicSignerConfig{
		Username: cfg.AccountName,
		Password: cfg.AccountPassword,
	})
}

func (s *BasicSigner) Sign(_ context.Context, req *core.TransportRequest) error {
	if req == nil {
		return fmt.Errorf("auth: transport request is required")
	}
	if s == nil || s.config.Username == "" || s.config.Password == "" {
		return fmt.Errorf("auth: basic username/password are required")
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers[HeaderAuthorization] = "Basic " + basicToken(s.config.Username, s.config.Password)
	return nil
}

func basicToken(username string, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

var _ core.RequestSigner = (*BasicSigner)(nil)
