package archive

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPConfig locates the remote archive drop.
type SFTPConfig struct {
	Host                  string
	Port                  int
	User                  string
	Pass                  string
	RemoteDir             string
	InsecureIgnoreHostKey bool
}

// SFTPSink uploads packages to a remote SFTP directory. Each Store dials a
// fresh session; archival is rare enough that holding a connection open buys
// nothing.
type SFTPSink struct {
	Config SFTPConfig
}

func (s SFTPSink) Name() string { return "sftp:" + s.Config.Host }

func (s SFTPSink) Store(ctx context.Context, name string, content []byte) error {
	cfg := s.Config
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return fmt.Errorf("sftp: missing host/user/pass")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}

	// The sink only supports unverified host keys; refuse to dial unless the
	// operator opted in, rather than skipping verification silently.
	if !cfg.InsecureIgnoreHostKey {
		return fmt.Errorf("sftp: host key verification is not supported; set SFTP_INSECURE_IGNORE_HOSTKEY=true to archive over SFTP")
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         20 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	// ssh.Dial has no context variant; bridge it through a goroutine so a
	// canceled delivery does not hang on a dead host.
	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	var sshClient *ssh.Client
	select {
	case <-ctx.Done():
		return fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("sftp: dial error: %w", r.err)
		}
		sshClient = r.client
	}
	defer sshClient.Close()

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpCli.Close()

	if err := sftpCli.MkdirAll(cfg.RemoteDir); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", cfg.RemoteDir, err)
	}

	remotePath := path.Join(cfg.RemoteDir, name)
	dst, err := sftpCli.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: create remote file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(content); err != nil {
		return fmt.Errorf("sftp: upload write: %w", err)
	}

	return nil
}
