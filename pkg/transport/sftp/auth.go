package sftp

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	Scheme      = "sftp://"
	defaultPort = 22
	dialTimeout = 30 * time.Second
)

// Options holds the connection settings for an SSH server.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string

	// PrivateKeyPath is the path to a PEM or OpenSSH private key.
	PrivateKeyPath string
	// Passphrase for an encrypted private key.
	Passphrase string

	// KnownHostsPath enables host key verification. When empty any host key
	// is accepted.
	KnownHostsPath string
}

// Address returns host:port, defaulting the port to 22.
func (o Options) Address() string {
	port := o.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// ClientConfig builds the SSH client configuration.
func (o Options) ClientConfig() (*ssh.ClientConfig, error) {
	if o.Host == "" {
		return nil, errors.New("sftp: host is required")
	}
	if o.Username == "" {
		return nil, errors.New("sftp: username is required")
	}

	var methods []ssh.AuthMethod
	if o.PrivateKeyPath != "" {
		signer, err := loadSigner(o.PrivateKeyPath, o.Passphrase)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if o.Password != "" {
		methods = append(methods, ssh.Password(o.Password))
	}
	if len(methods) == 0 {
		return nil, errors.New("sftp: no SSH credentials configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in verification via KnownHostsPath
	if o.KnownHostsPath != "" {
		cb, err := knownhosts.New(o.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            o.Username,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}, nil
}

func loadSigner(keyPath, passphrase string) (ssh.Signer, error) {
	pem, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return parseSigner(pem, passphrase)
}

func parseSigner(pem []byte, passphrase string) (ssh.Signer, error) {
	var (
		signer ssh.Signer
		err    error
	)
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return signer, nil
}

// ParseURI reads user, host, port and remote path from sftp://user@host:port/path.
// Values present in the URI override those already in base.
func ParseURI(uri string, base Options) (Options, string, error) {
	if !strings.HasPrefix(uri, Scheme) {
		return base, "", fmt.Errorf("invalid SFTP URI: must start with %s", Scheme)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return base, "", fmt.Errorf("invalid SFTP URI: %w", err)
	}
	if u.Hostname() == "" {
		return base, "", fmt.Errorf("invalid SFTP URI: missing host")
	}

	opts := base
	opts.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return base, "", fmt.Errorf("invalid SFTP URI port %q: %w", p, err)
		}
		opts.Port = port
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			opts.Username = name
		}
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}

	remotePath := u.Path
	if remotePath == "" {
		remotePath = "."
	}
	return opts, remotePath, nil
}
