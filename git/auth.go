package git

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// SSHKeyFile loads a private key from keyPath for SSH authentication.
// Mirror nodes are usually reached over SSH as the "git" user. An empty
// password is used for unencrypted keys.
//
// Example:
//
//	auth, err := git.SSHKeyFile("git", "/home/jenkins/.ssh/id_rsa", "")
//	if err != nil {
//	    return err
//	}
//	repo, err := git.Open(dir, git.WithAuth(auth))
func SSHKeyFile(user, keyPath, password string) (Auth, error) {
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key file %q: %w", keyPath, err)
	}

	publicKeys, err := ssh.NewPublicKeys(user, pemBytes, password)
	if err != nil {
		return nil, wrapError(err, "failed to parse SSH key")
	}

	return publicKeys, nil
}

// BasicAuth creates HTTP basic authentication, used for http: mirrors.
func BasicAuth(username, password string) Auth {
	return &http.BasicAuth{
		Username: username,
		Password: password,
	}
}

// Verify that go-git auth types satisfy our Auth interface
var _ Auth = (transport.AuthMethod)(nil)
