package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"runtime"
	"strings"
)

// ErrNoFingerprint is returned when the host exposes no stable characteristic.
var ErrNoFingerprint = errors.New("identity: no stable host characteristics")

// Fingerprinter derives an opaque id from device characteristics.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// FingerprintFunc adapts a function to Fingerprinter.
type FingerprintFunc func(ctx context.Context) (string, error)

func (f FingerprintFunc) Fingerprint(ctx context.Context) (string, error) { return f(ctx) }

var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

var (
	hostnameFn = os.Hostname
	readFileFn = os.ReadFile
	homeDirFn  = os.UserHomeDir
)

// HostFingerprinter hashes machine id, hostname, platform and home directory.
type HostFingerprinter struct{}

func (HostFingerprinter) Fingerprint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	machineID := readMachineID()
	hostname, _ := hostnameFn()
	hostname = strings.TrimSpace(hostname)
	if machineID == "" && hostname == "" {
		return "", ErrNoFingerprint
	}
	home, _ := homeDirFn()

	h := sha256.New()
	for _, part := range []string{machineID, hostname, runtime.GOOS, runtime.GOARCH, home} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]), nil
}

func readMachineID() string {
	for _, path := range machineIDPaths {
		data, err := readFileFn(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}
	return ""
}
