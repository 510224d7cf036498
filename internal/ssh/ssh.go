package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/logger"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/ssh"
)

// connectSSH establishes an SSH connection
func connectSSH(config connection.SSHConfig) (*ssh.Client, error) {
	authMethods := []ssh.AuthMethod{}

	if config.KeyPath != "" {
		key, err := os.ReadFile(config.KeyPath)
		if err == nil {
			signer, err := ssh.ParsePrivateKey(key)
			if err == nil {
				authMethods = append(authMethods, ssh.PublicKeys(signer))
			}
		}
	}

	if config.Password != "" {
		authMethods = append(authMethods, ssh.Password(config.Password))
	}

	sshConfig := &ssh.ClientConfig{
		User:            config.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // Use strict checking in production!
		Timeout:         5 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	return ssh.Dial("tcp", addr, sshConfig)
}

// RegisterSSHNetwork registers a unique network name for a specific SSH tunnel.
// Returns the network name to use in a MySQL DSN.
func RegisterSSHNetwork(sshConfig connection.SSHConfig) (string, error) {
	client, err := connectSSH(sshConfig)
	if err != nil {
		return "", err
	}

	netName := fmt.Sprintf("ssh_%s_%d", sshConfig.Host, time.Now().UnixNano())

	mysql.RegisterDialContext(netName, func(ctx context.Context, addr string) (net.Conn, error) {
		return client.Dial("tcp", addr)
	})

	return netName, nil
}

// LocalForwarder listens on a local port and forwards every accepted
// connection through an SSH tunnel to a fixed remote address. Clients that
// only speak plain TCP (redis, memcached) connect to LocalAddr instead of
// the remote host.
type LocalForwarder struct {
	LocalAddr string

	sshClient *ssh.Client
	listener  net.Listener
	remote    string
}

var (
	forwarders   = make(map[string]*LocalForwarder)
	forwardersMu sync.Mutex
)

// GetOrCreateLocalForwarder returns a running forwarder for the given SSH
// endpoint and remote target, creating one on first use.
func GetOrCreateLocalForwarder(sshConfig connection.SSHConfig, remoteHost string, remotePort int) (*LocalForwarder, error) {
	key := fmt.Sprintf("%s:%d@%s:%d/%s", sshConfig.Host, sshConfig.Port, remoteHost, remotePort, sshConfig.User)

	forwardersMu.Lock()
	defer forwardersMu.Unlock()

	if fw, ok := forwarders[key]; ok {
		return fw, nil
	}

	client, err := connectSSH(sshConfig)
	if err != nil {
		return nil, fmt.Errorf("SSH 连接失败：%w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("监听本地转发端口失败：%w", err)
	}

	fw := &LocalForwarder{
		LocalAddr: listener.Addr().String(),
		sshClient: client,
		listener:  listener,
		remote:    fmt.Sprintf("%s:%d", remoteHost, remotePort),
	}
	go fw.serve()

	forwarders[key] = fw
	logger.Infof("SSH 本地转发已建立：%s -> %s", fw.LocalAddr, fw.remote)
	return fw, nil
}

func (f *LocalForwarder) serve() {
	for {
		local, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.forward(local)
	}
}

func (f *LocalForwarder) forward(local net.Conn) {
	remote, err := f.sshClient.Dial("tcp", f.remote)
	if err != nil {
		logger.Error(err, "SSH 转发到远端失败：%s", f.remote)
		local.Close()
		return
	}

	pipe := func(dst, src net.Conn) {
		defer dst.Close()
		defer src.Close()
		buf := make([]byte, 32*1024)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				if _, werr := dst.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
	go pipe(remote, local)
	go pipe(local, remote)
}

// Close stops the forwarder and its SSH connection.
func (f *LocalForwarder) Close() {
	if f.listener != nil {
		_ = f.listener.Close()
	}
	if f.sshClient != nil {
		_ = f.sshClient.Close()
	}
}
