package session

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"
)

const dialTimeout = 15 * time.Second

// buildSSHConfig translates a Credential into an *ssh.ClientConfig,
// following the auth-method precedence the teacher backend uses in
// its NewFs: private key (read from PrivateKeyPath) first, password second,
// ssh-agent only when neither a password nor a key was supplied.
func buildSSHConfig(cred Credential) (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
		ClientVersion:   "SSH-2.0-actl",
	}

	switch {
	case cred.usesKey():
		key, err := os.ReadFile(cred.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrap(err, "read private key file")
		}
		var signer ssh.Signer
		if cred.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(cred.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse private key")
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	case cred.Password != "":
		cfg.Auth = append(cfg.Auth, ssh.Password(cred.Password))
	default:
		agentClient, _, err := sshagent.New()
		if err != nil {
			return nil, errors.Wrap(err, "connect to ssh-agent")
		}
		signers, err := agentClient.Signers()
		if err != nil {
			return nil, errors.Wrap(err, "read ssh-agent signers")
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signers...))
	}

	return cfg, nil
}

// dial opens a raw TCP connection and completes the SSH handshake,
// mirroring backend/sftp.Fs.dial.
func dial(addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "ssh handshake")
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// newSFTPClient opens the sftp subsystem on an existing ssh.Client,
// mirroring backend/sftp.Fs.newSftpClient.
func newSFTPClient(client *ssh.Client) (*sftp.Client, error) {
	s, err := client.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "new ssh session")
	}
	pw, err := s.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdin pipe")
	}
	pr, err := s.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe")
	}
	if err := s.RequestSubsystem("sftp"); err != nil {
		return nil, errors.Wrap(err, "request sftp subsystem")
	}
	return sftp.NewClientPipe(pr, pw)
}

func hostAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
