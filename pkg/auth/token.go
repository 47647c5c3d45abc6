package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// AuthCredential is a token obtained from the user.
type AuthCredential struct {
	AccessToken string `json:"access_token"`
	Provider    string `json:"provider"`
	AuthMethod  string `json:"auth_method"`
}

// LoginPasteToken prompts on out and reads one token line from r.
func LoginPasteToken(provider string, r io.Reader, out io.Writer) (*AuthCredential, error) {
	fmt.Fprintf(out, "Paste your personal access token from %s:\n", providerDisplayName(provider))
	fmt.Fprint(out, "> ")

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading token: %w", err)
		}
		return nil, errors.New("no input received")
	}

	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	return &AuthCredential{
		AccessToken: token,
		Provider:    provider,
		AuthMethod:  "token",
	}, nil
}

// MaskToken shows only the last four characters of token.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

func providerDisplayName(provider string) string {
	switch provider {
	case "gitter":
		return "developer.gitter.im/apps"
	default:
		return provider
	}
}
