// Package credentials loads the node's bearer token from its token file.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingToken is the one startup error the agent cannot recover from.
var ErrMissingToken = errors.New("no token found")

// Credential is the registration issued by the control plane. The token is a
// bearer token, opaque to us and immutable for the process lifetime.
type Credential struct {
	Email string
	Token string
}

// Load reads the token file at path (line format: "email: ...", "token: ...")
// and falls back to NODE_EMAIL/NODE_TOKEN env vars for anything the file did
// not supply. Returns ErrMissingToken if no token can be found anywhere.
func Load(path string) (Credential, error) {
	var cred Credential

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		cred, err = parse(f)
		if err != nil {
			return Credential{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fine, env may still carry the token
	default:
		return Credential{}, fmt.Errorf("open %s: %w", path, err)
	}

	if cred.Email == "" {
		cred.Email = strings.TrimSpace(os.Getenv("NODE_EMAIL"))
	}
	if cred.Token == "" {
		cred.Token = strings.TrimSpace(os.Getenv("NODE_TOKEN"))
	}
	if cred.Token == "" {
		return Credential{}, ErrMissingToken
	}
	return cred, nil
}

func parse(r io.Reader) (Credential, error) {
	var cred Credential
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(strings.ToLower(key)) {
		case "email":
			cred.Email = strings.TrimSpace(val)
		case "token":
			cred.Token = strings.TrimSpace(val)
		}
	}
	return cred, sc.Err()
}
