package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/internal/config"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
	s3transport "github.com/yuya-takeyama/atm-sync/pkg/transport/s3"
	sftptransport "github.com/yuya-takeyama/atm-sync/pkg/transport/sftp"
)

// fileScheme marks an explicit local filesystem destination.
const fileScheme = "file://"

type destinationKind string

const (
	kindFilesystem destinationKind = "filesystem"
	kindS3         destinationKind = "s3"
	kindSFTP       destinationKind = "sftp"
)

// destination is an opened transport plus the destination directory as
// that transport addresses it.
type destination struct {
	kind      destinationKind
	transport transport.Transport
	remote    string
}

// classify picks the transport for dest.
func classify(dest string, auth config.Auth) destinationKind {
	switch {
	case strings.HasPrefix(dest, s3transport.Scheme):
		return kindS3
	case strings.HasPrefix(dest, sftptransport.Scheme):
		return kindSFTP
	case strings.HasPrefix(dest, fileScheme):
		return kindFilesystem
	case auth.Host != "":
		return kindSFTP
	default:
		return kindFilesystem
	}
}

func openDestination(ctx context.Context, cfg *config.Config, local afero.Fs) (*destination, error) {
	switch classify(cfg.Dest, cfg.Auth) {
	case kindS3:
		bucket, prefix, err := s3transport.ParseURI(cfg.Dest)
		if err != nil {
			return nil, err
		}
		opts := s3Options(cfg.Auth)
		awsCfg, err := s3transport.LoadConfig(ctx, opts)
		if err != nil {
			return nil, err
		}
		client := s3transport.NewClient(awsCfg, opts)
		return &destination{
			kind:      kindS3,
			transport: s3transport.New(client, bucket, local),
			remote:    prefix,
		}, nil

	case kindSFTP:
		opts := sftpOptions(cfg.Auth)
		remote := cfg.Dest
		if strings.HasPrefix(cfg.Dest, sftptransport.Scheme) {
			var err error
			opts, remote, err = sftptransport.ParseURI(cfg.Dest, opts)
			if err != nil {
				return nil, err
			}
		}
		t, err := sftptransport.Dial(ctx, opts, local)
		if err != nil {
			return nil, err
		}
		return &destination{
			kind:      kindSFTP,
			transport: t,
			remote:    filepath.ToSlash(remote),
		}, nil

	default:
		abs, err := filepath.Abs(strings.TrimPrefix(cfg.Dest, fileScheme))
		if err != nil {
			return nil, fmt.Errorf("get absolute path: %w", err)
		}
		return &destination{
			kind:      kindFilesystem,
			transport: transport.NewFSTransport(local, local),
			remote:    filepath.ToSlash(abs),
		}, nil
	}
}

func s3Options(auth config.Auth) s3transport.Options {
	return s3transport.Options{
		Profile:      auth.Profile,
		Region:       auth.Region,
		Endpoint:     auth.Endpoint,
		UsePathStyle: auth.PathStyle,
		AccessKey:    auth.AccessKey,
		SecretKey:    auth.SecretKey,
	}
}

func sftpOptions(auth config.Auth) sftptransport.Options {
	return sftptransport.Options{
		Host:           auth.Host,
		Port:           auth.Port,
		Username:       auth.Username,
		Password:       auth.Password,
		PrivateKeyPath: auth.PrivateKey,
		Passphrase:     auth.Passphrase,
		KnownHostsPath: auth.KnownHosts,
	}
}
