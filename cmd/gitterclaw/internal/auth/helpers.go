package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	pkgauth "github.com/tinyland-inc/gitterclaw/pkg/auth"
	"github.com/tinyland-inc/gitterclaw/pkg/config"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

func loginCmd(ctx context.Context, in io.Reader, out io.Writer, token string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	if token == "" {
		token, err = readToken(in, out)
		if err != nil {
			return err
		}
	}

	cfg.Gitter.Token = token
	client, err := gitter.NewClient(ctx, cfg.ClientConfig())
	if err != nil {
		return err
	}

	// Only the token is new; values that came from the environment stay there.
	path := internal.GetConfigPath()
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	fileCfg.Gitter.Token = token
	if err := config.SaveConfig(path, fileCfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "\n✓ Logged in as %s (%s)\n", client.Username(), client.UserID())
	fmt.Fprintf(out, "Token saved to %s\n", path)
	return nil
}

// readToken prompts without echo when in is a terminal, and reads a
// pasted line otherwise.
func readToken(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Gitter token (developer.gitter.im/apps): ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			return "", errors.New("token cannot be empty")
		}
		return token, nil
	}

	cred, err := pkgauth.LoginPasteToken("gitter", in, out)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

func statusCmd(ctx context.Context, out io.Writer) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Gitter.Token == "" {
		fmt.Fprintln(out, "Not logged in. Run: gitterclaw auth login")
		return nil
	}

	fmt.Fprintf(out, "Token: %s\n", pkgauth.MaskToken(cfg.Gitter.Token))

	client, err := gitter.NewClient(ctx, cfg.ClientConfig())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "User:  %s (%s)\n", client.Username(), client.UserID())
	return nil
}
