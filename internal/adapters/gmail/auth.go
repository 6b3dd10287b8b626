package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// NewService builds an authenticated Gmail API service from an OAuth2
// client secret file and a persisted token file. Refreshed access tokens
// are written back to the token file so long-running deployments keep a
// valid token across restarts.
func NewService(ctx context.Context, credentialsPath, tokenPath string, logger *zap.Logger) (*gmailapi.Service, error) {
	credentials, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsPath, err)
	}

	oauthConfig, err := google.ConfigFromJSON(credentials, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client config: %w", err)
	}

	token, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no usable token at %s (run an OAuth authorization flow to create one): %w", tokenPath, err)
	}

	source := &persistingTokenSource{
		source:    oauthConfig.TokenSource(ctx, token),
		tokenPath: tokenPath,
		last:      token,
		logger:    logger,
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// tokenFromFile loads a saved OAuth2 token
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}

// persistingTokenSource wraps a TokenSource and saves refreshed tokens
type persistingTokenSource struct {
	source    oauth2.TokenSource
	tokenPath string
	logger    *zap.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		s.last = token
		if err := saveToken(s.tokenPath, token); err != nil {
			if s.logger != nil {
				s.logger.Warn("Failed to persist refreshed token", zap.Error(err))
			}
		} else if s.logger != nil {
			s.logger.Debug("Persisted refreshed token", zap.String("path", s.tokenPath))
		}
	}
	return token, nil
}

// saveToken writes an OAuth2 token to path
func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open token file for writing: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
